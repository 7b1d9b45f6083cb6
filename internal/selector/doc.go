// Package selector decides between several library matches for one movie.
//
// A Selector replays a remembered choice when the disambiguation memory holds
// one for the exact (title, year) pair and the remembered key is still among
// the candidates. Otherwise it asks a Prompter: the console prompter reads an
// index from the terminal, the Session hands the request to an HTTP caller
// and blocks until a decision, a skip, or its timeout. Explicit choices are
// written through to the memory before they are returned.
package selector
