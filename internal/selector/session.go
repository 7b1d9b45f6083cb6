package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
	"reelsync/internal/services"
)

var (
	// ErrNoPendingRequest is returned when no selection is waiting for the identity.
	ErrNoPendingRequest = fmt.Errorf("%w: no pending selection", services.ErrNotFound)
	// ErrInvalidChoice is returned when the chosen key is not one of the candidates.
	ErrInvalidChoice = errors.New("choice is not among the candidates")
)

// Option is the serializable summary of one candidate.
type Option struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Edition string `json:"edition,omitempty"`
}

// Request is a selection waiting for an external decision.
type Request struct {
	Identity  movie.Identity `json:"identity"`
	Options   []Option       `json:"candidates"`
	CreatedAt time.Time      `json:"created_at"`
}

type decision struct {
	key  string
	skip bool
}

type pendingRequest struct {
	request Request
	reply   chan decision
}

// Session is the deferred prompter for one pipeline run. The run blocks in
// Prompt while an HTTP handler answers through Resolve or Skip; each pending
// request is answered exactly once.
type Session struct {
	name    string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[movie.Identity]*pendingRequest
}

// NewSession creates a session. A zero timeout waits until the context ends.
func NewSession(name string, timeout time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		name:    name,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "selection_session").With(logging.String(logging.FieldRun, name)),
		now:     time.Now,
		pending: make(map[movie.Identity]*pendingRequest),
	}
}

// Name returns the run name the session belongs to.
func (s *Session) Name() string {
	return s.name
}

// Prompt publishes a pending request and waits for a decision, the timeout,
// or cancellation. A timeout counts as a skip. A second prompt for an
// identity that is already pending declines immediately.
func (s *Session) Prompt(ctx context.Context, id movie.Identity, candidates []library.Item) (library.Item, bool, error) {
	options := make([]Option, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, Option{Key: c.Key, Title: c.Title, Year: c.Year, Edition: c.Edition})
	}
	p := &pendingRequest{
		request: Request{Identity: id, Options: options, CreatedAt: s.now()},
		reply:   make(chan decision, 1),
	}

	s.mu.Lock()
	if _, exists := s.pending[id]; exists {
		s.mu.Unlock()
		logging.WarnWithContext(s.logger, "selection already pending", "selection_duplicate",
			logging.Movie(id),
			logging.String(logging.FieldImpact, "second request declined"))
		return library.Item{}, false, nil
	}
	s.pending[id] = p
	s.mu.Unlock()

	s.logger.Info("selection pending",
		logging.Movie(id),
		logging.Int("candidates", len(candidates)))

	var timeout <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var d decision
	select {
	case d = <-p.reply:
	case <-timeout:
		var ok bool
		if d, ok = s.abandon(id, p); !ok {
			s.logger.Info("selection timed out", logging.Movie(id), logging.Duration("timeout", s.timeout))
			return library.Item{}, false, nil
		}
	case <-ctx.Done():
		s.abandon(id, p)
		return library.Item{}, false, ctx.Err()
	}

	if d.skip {
		return library.Item{}, false, nil
	}
	for _, c := range candidates {
		if c.Key == d.key {
			return c, true, nil
		}
	}
	return library.Item{}, false, nil
}

// abandon removes p unless a decision already claimed it, in which case that
// decision is returned.
func (s *Session) abandon(id movie.Identity, p *pendingRequest) (decision, bool) {
	s.mu.Lock()
	if current, ok := s.pending[id]; ok && current == p {
		delete(s.pending, id)
		s.mu.Unlock()
		return decision{}, false
	}
	s.mu.Unlock()
	return <-p.reply, true
}

// Pending lists waiting requests, oldest first.
func (s *Session) Pending() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of waiting requests.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Resolve answers the pending request for id with the candidate keyed key.
func (s *Session) Resolve(id movie.Identity, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return ErrNoPendingRequest
	}
	found := false
	for _, opt := range p.request.Options {
		if opt.Key == key {
			found = true
			break
		}
	}
	if !found {
		return ErrInvalidChoice
	}
	delete(s.pending, id)
	p.reply <- decision{key: key}
	s.logger.Info("selection resolved", logging.Movie(id), logging.String("key", key))
	return nil
}

// Skip answers the pending request for id with no choice.
func (s *Session) Skip(id movie.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return ErrNoPendingRequest
	}
	delete(s.pending, id)
	p.reply <- decision{skip: true}
	s.logger.Info("selection skipped", logging.Movie(id))
	return nil
}
