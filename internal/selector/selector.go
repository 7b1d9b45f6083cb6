package selector

import (
	"context"
	"log/slog"

	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/movie"
)

// Prompter asks an operator to pick one of several library candidates. ok is
// false when the operator declines.
type Prompter interface {
	Prompt(ctx context.Context, id movie.Identity, candidates []library.Item) (chosen library.Item, ok bool, err error)
}

// Memory is the persisted record of earlier choices.
type Memory interface {
	Lookup(id movie.Identity) (string, bool)
	Record(ctx context.Context, id movie.Identity, key string) error
}

// Selector resolves multi-candidate searches: a remembered choice first, then
// the prompter. Explicit choices are recorded before they are returned.
type Selector struct {
	memory   Memory
	prompter Prompter
	logger   *slog.Logger
}

// New builds a Selector. A nil prompter declines every prompt.
func New(memory Memory, prompter Prompter, logger *slog.Logger) *Selector {
	if prompter == nil {
		prompter = DeclinePrompter{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{
		memory:   memory,
		prompter: prompter,
		logger:   logging.NewComponentLogger(logger, "selector"),
	}
}

// Choose picks one of candidates for id. It returns ok=false when nothing was
// chosen; err is reserved for cancellation.
func (s *Selector) Choose(ctx context.Context, id movie.Identity, candidates []library.Item) (library.Item, bool, error) {
	if len(candidates) == 0 {
		return library.Item{}, false, nil
	}

	if s.memory != nil {
		if key, ok := s.memory.Lookup(id); ok {
			for _, c := range candidates {
				if c.Key == key {
					s.logger.Debug("candidate decision", decisionArgs("replayed", "remembered choice",
						logging.Movie(id),
						logging.String("key", key))...)
					return c, true, nil
				}
			}
			s.logger.Debug("remembered choice not among candidates",
				logging.Movie(id),
				logging.String("key", key))
		}
	}

	chosen, ok, err := s.prompter.Prompt(ctx, id, candidates)
	if err != nil {
		return library.Item{}, false, err
	}
	if !ok {
		s.logger.Info("candidate decision", decisionArgs("declined", "no choice made",
			logging.Movie(id),
			logging.Int("candidates", len(candidates)))...)
		return library.Item{}, false, nil
	}

	if s.memory != nil {
		if err := s.memory.Record(ctx, id, chosen.Key); err != nil {
			logging.WarnWithContext(s.logger, "failed to persist disambiguation choice", "disambiguation_persist_failed",
				logging.Movie(id),
				logging.String("key", chosen.Key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the choice will be asked again next run"))
		}
	}
	s.logger.Info("candidate decision", decisionArgs("chosen", "operator choice",
		logging.Movie(id),
		logging.String("chosen", chosen.Label()),
		logging.String("key", chosen.Key))...)
	return chosen, true, nil
}

func decisionArgs(result, reason string, extra ...logging.Attr) []any {
	attrs := append(logging.DecisionAttrs("disambiguation", result, reason), extra...)
	return logging.Args(attrs...)
}

// DeclinePrompter never chooses. It is used when no operator is available.
type DeclinePrompter struct{}

func (DeclinePrompter) Prompt(context.Context, movie.Identity, []library.Item) (library.Item, bool, error) {
	return library.Item{}, false, nil
}
