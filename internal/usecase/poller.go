// File: internal/usecase/poller.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coursegen/internal/config"
	"coursegen/internal/domain"
	"coursegen/internal/domain/model"
	"coursegen/internal/domain/ports/adapter"
	"coursegen/internal/infra/logging"
	"coursegen/internal/infra/metrics"
)

// PollCallbacks receive the outcomes of a watch. Progress is advisory,
// taken straight from the backend's own field.
type PollCallbacks struct {
	OnProgress  func(status model.CourseStatus, progress int, attempt int)
	OnCompleted func(course *model.Course)
	OnFailed    func(reason string)
}

// Poller re-fetches a course on a fixed interval until it reaches a
// terminal status or the attempt budget runs out. Polls are strictly
// sequential: the next one is scheduled only after the previous response
// (or its failure) has been handled. Cancel via ctx; a poll already in
// flight finishes but its result is discarded.
type Poller struct {
	api         adapter.CourseAPI
	tokens      adapter.TokenSource
	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
	log         *zerolog.Logger
}

func NewPoller(api adapter.CourseAPI, tokens adapter.TokenSource, cfg config.PollConfig, logger *zerolog.Logger) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 120
	}
	return &Poller{
		api:         api,
		tokens:      tokens,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepCtx,
		log:         logger,
	}
}

// Watch drives the poll loop for one course. It returns nil once a
// terminal callback fired, domain.ErrPollTimeout when the budget is
// exhausted (the job may still finish server-side), domain.ErrSessionExpired
// when the bearer token disappears mid-watch, or ctx.Err() on cancellation.
// A single failed poll is not fatal: it is logged, counted and retried on
// the next tick.
func (p *Poller) Watch(ctx context.Context, courseID int64, cb PollCallbacks) error {
	ctx = logging.WithCourseID(ctx, courseID)
	l := logging.With(ctx, p.log)
	defer logging.TraceDuration(l, "Poller.Watch")()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		tok, err := p.tokens.Token(ctx)
		if err != nil || tok == "" {
			metrics.IncPollOutcome("session_expired")
			l.Warn().Int("attempt", attempt).Msg("token gone, polling stopped")
			return domain.ErrSessionExpired
		}

		metrics.IncPollAttempt()
		course, err := p.api.GetCourse(ctx, courseID)
		if ctx.Err() != nil {
			// cancelled while the request was in flight: discard the result
			metrics.IncPollOutcome("cancelled")
			return ctx.Err()
		}
		if err != nil {
			l.Warn().Int("attempt", attempt).Err(err).Msg("poll failed, will retry")
		} else {
			switch course.Status {
			case model.CourseStatusCompleted:
				metrics.IncPollOutcome("completed")
				l.Info().Int("attempt", attempt).Msg("generation completed")
				if cb.OnCompleted != nil {
					cb.OnCompleted(course)
				}
				return nil
			case model.CourseStatusFailed:
				metrics.IncPollOutcome("failed")
				l.Info().Int("attempt", attempt).Str("reason", course.FailReason).Msg("generation failed")
				if cb.OnFailed != nil {
					cb.OnFailed(course.FailReason)
				}
				return nil
			default:
				if cb.OnProgress != nil {
					cb.OnProgress(course.Status, course.Progress, attempt)
				}
			}
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			metrics.IncPollOutcome("cancelled")
			return err
		}
	}

	metrics.IncPollOutcome("timeout")
	l.Warn().Int("attempts", p.maxAttempts).Msg("poll budget exhausted")
	return domain.ErrPollTimeout
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
