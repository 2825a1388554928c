package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// step is one write of a multi-write operation together with the write
// that undoes it. compensate may be nil for reads.
type step struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// sequence runs steps in order and remembers the ones that succeeded so
// they can be undone, newest first, when a later step fails.
type sequence struct {
	log  zerolog.Logger
	done []step
}

func newSequence(log zerolog.Logger) *sequence {
	return &sequence{log: log}
}

func (s *sequence) run(ctx context.Context, st step) error {
	if err := st.execute(ctx); err != nil {
		s.log.Warn().Err(err).Str("step", st.name).Msg("step failed")
		return err
	}
	s.done = append(s.done, st)
	return nil
}

// rollback undoes completed steps and returns cause, joined with any
// compensation failures. Compensation outlives cancellation of ctx.
func (s *sequence) rollback(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var failed []error
	for i := len(s.done) - 1; i >= 0; i-- {
		st := s.done[i]
		if st.compensate == nil {
			continue
		}
		s.log.Info().Str("step", st.name).Msg("compensating")
		if err := st.compensate(ctx); err != nil {
			s.log.Error().Err(err).Str("step", st.name).Msg("compensation failed")
			failed = append(failed, fmt.Errorf("compensate %s: %w", st.name, err))
		}
	}
	s.done = nil

	if len(failed) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, failed...)...)
}
