// Package video orchestrates long-running video generation: submission,
// status polling against the operation store, and result resolution.
package video

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/operation"
	videoprovider "server/internal/providers/video"
	"server/internal/retry"
)

// State is the explicit status union for one operation. The "done with
// neither error nor result" case is unrepresentable here; it surfaces as an
// INCONSISTENT_TERMINAL_STATE error instead.
type State string

const (
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Status is the outcome of a single poll.
type Status struct {
	State State
	// VideoURL is set when State is StateCompleted; it is directly
	// fetchable, credentials included.
	VideoURL string
	// Error is the failure message when State is StateFailed.
	Error string
	// JustCompleted is true only on the poll that first observed the
	// terminal state, so completion side effects run exactly once.
	JustCompleted bool
}

// Config carries the tunables the service exposes rather than hard-coding.
type Config struct {
	// PollInterval is the fixed cadence between successive polls in
	// Await. Backoff applies to transient poll failures, never to this
	// steady-state cadence.
	PollInterval time.Duration
	// MaxPollDuration bounds the total wall-clock time Await will follow
	// one job. Zero disables the ceiling.
	MaxPollDuration time.Duration
	SubmitRetry     retry.Policy
	PollRetry       retry.Policy
}

// Service coordinates the provider and the operation store.
type Service struct {
	provider videoprovider.Operator
	store    operation.Store
	cfg      Config
	logger   zerolog.Logger
}

func NewService(provider videoprovider.Operator, store operation.Store, cfg Config, logger zerolog.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.SubmitRetry.MaxAttempts == 0 {
		cfg.SubmitRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Second}
	}
	if cfg.PollRetry.MaxAttempts == 0 {
		cfg.PollRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Second}
	}
	return &Service{provider: provider, store: store, cfg: cfg, logger: logger}
}

// Submit validates the request, starts the provider job and persists the
// returned operation token before handing the identifier back. Persist-first
// matters: a poll against an unsaved id would report not-found even though
// the job is running externally.
func (s *Service) Submit(ctx context.Context, req videoprovider.SubmitRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	}
	if !domain.ValidVideoAspect(req.AspectRatio) {
		return "", domain.E(domain.KindValidation, "aspect_ratio_invalid",
			"aspect ratio %q is not allowed for video", req.AspectRatio)
	}

	token, err := retry.Do(ctx, s.cfg.SubmitRetry, func(ctx context.Context) (domain.OperationToken, error) {
		return s.provider.Submit(ctx, req)
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token.Name) == "" {
		return "", domain.ErrNoOperationName
	}
	if err := s.store.Save(ctx, token); err != nil {
		return "", err
	}

	s.logger.Info().Str("operation_id", token.Name).Msg("video: submitted generation job")
	return token.Name, nil
}

// Poll refreshes one operation and interprets the result. The refreshed
// state is persisted via the store before interpretation, so progress
// already observed survives a crash mid-poll.
func (s *Service) Poll(ctx context.Context, id string) (*Status, error) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		// Missing or unusable record: fail fast, never hit the
		// provider with a stale or fabricated id.
		return nil, err
	}
	wasDone := stored.Done()

	snap, err := retry.Do(ctx, s.cfg.PollRetry, func(ctx context.Context) (*videoprovider.Snapshot, error) {
		return s.provider.Refresh(ctx, stored)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, snap.Token); err != nil {
		return nil, err
	}

	if !snap.Done {
		return &Status{State: StateProcessing}, nil
	}

	justCompleted := !wasDone

	if snap.Failed {
		message := strings.TrimSpace(snap.ErrorMessage)
		if message == "" {
			message = "video generation failed"
		}
		return &Status{State: StateFailed, Error: message, JustCompleted: justCompleted}, nil
	}

	if snap.DownloadURI == "" {
		s.logger.Error().Str("operation_id", id).
			Msg("video: operation reported done with neither error nor result")
		return nil, domain.E(domain.KindInconsistentState, "video_completed_no_result",
			"video generation completed but no download link was found")
	}

	resolved, err := s.provider.DownloadURL(snap.DownloadURI)
	if err != nil {
		return nil, err
	}
	return &Status{State: StateCompleted, VideoURL: resolved, JustCompleted: justCompleted}, nil
}

// Await polls at the fixed interval until the operation reaches a terminal
// state, then returns the resolved video URL. The interval elapses in full
// between polls regardless of poll latency. onProgress may be nil.
func (s *Service) Await(ctx context.Context, id string, onProgress func(string)) (string, error) {
	progress := func(msg string) {
		if onProgress != nil {
			onProgress(msg)
		}
	}
	progress("polling for results, this may take a few minutes")

	var deadline time.Time
	if s.cfg.MaxPollDuration > 0 {
		deadline = time.Now().Add(s.cfg.MaxPollDuration)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}

		status, err := s.Poll(ctx, id)
		if err != nil {
			return "", err
		}
		switch status.State {
		case StateCompleted:
			return status.VideoURL, nil
		case StateFailed:
			return "", domain.E(domain.KindInternal, "video_failed", "%s", status.Error)
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return "", domain.E(domain.KindTransient, "video_timeout",
				"video generation did not finish within %s", s.cfg.MaxPollDuration)
		}
		progress("polling for results, this may take a few minutes")
	}
}
