package selector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"reelsync/internal/library"
	"reelsync/internal/movie"
)

// ConsolePrompter lists candidates with 1-based indexes and reads the choice
// from a line of input. Anything that is not an index in range declines.
type ConsolePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter builds a prompter over in and out.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

func (p *ConsolePrompter) Prompt(ctx context.Context, id movie.Identity, candidates []library.Item) (library.Item, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return library.Item{}, false, err
	}

	fmt.Fprintf(p.out, "\nMultiple library matches for %s:\n", id)
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c.Label())
	}
	fmt.Fprintf(p.out, "Select 1-%d (anything else skips): ", len(candidates))

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return library.Item{}, false, nil
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(candidates) {
		fmt.Fprintln(p.out, "Skipped.")
		return library.Item{}, false, nil
	}
	return candidates[choice-1], true, nil
}
