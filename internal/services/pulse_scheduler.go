package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

const (
	pulseSweepInterval = 24 * time.Hour
	pulseCheckInterval = 1 * time.Hour
	pulseErrorBackoff  = 1 * time.Hour

	pulseSweepLockKey = "pulse:scheduler:sweep"
	pulseCheckLockKey = "pulse:scheduler:check"
	pulseLockTTL      = 30 * time.Minute

	pulseFanoutLimit = 4
)

// PulseScheduler drives the background pulse regeneration: a full sweep over
// all active users every 24 hours plus an hourly due-check that catches
// anything the sweep missed. With multiple replicas, a redis lock keeps a
// run single-flight; without redis every replica runs (safe because the
// per-user upsert is atomic, just wasteful).
type PulseScheduler struct {
	log       *logger.Logger
	pulses    PulseService
	userRepo  repos.UserRepo
	pulseRepo repos.PulseRepo
	redis     *redis.Client // nil when not configured
}

func NewPulseScheduler(
	log *logger.Logger,
	pulses PulseService,
	userRepo repos.UserRepo,
	pulseRepo repos.PulseRepo,
	redisClient *redis.Client,
) *PulseScheduler {
	return &PulseScheduler{
		log:       log.With("service", "PulseScheduler"),
		pulses:    pulses,
		userRepo:  userRepo,
		pulseRepo: pulseRepo,
		redis:     redisClient,
	}
}

// Start launches the sweep and checker loops. They stop when ctx is
// cancelled.
func (s *PulseScheduler) Start(ctx context.Context) {
	s.log.Info("pulse scheduler started")
	go s.sweepLoop(ctx)
	go s.checkLoop(ctx)
}

func (s *PulseScheduler) sweepLoop(ctx context.Context) {
	for {
		wait := pulseSweepInterval
		if err := s.runLocked(ctx, pulseSweepLockKey, s.sweepAllUsers); err != nil {
			s.log.Error("pulse sweep failed", "error", err.Error())
			wait = pulseErrorBackoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *PulseScheduler) checkLoop(ctx context.Context) {
	ticker := time.NewTicker(pulseCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runLocked(ctx, pulseCheckLockKey, s.regenerateDue); err != nil {
				s.log.Error("pulse due-check failed", "error", err.Error())
			}
		}
	}
}

// runLocked executes fn under a best-effort cross-replica lock. A held lock
// means another replica is already on it; that is a clean skip, not an error.
func (s *PulseScheduler) runLocked(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, key, "1", pulseLockTTL).Result()
		if err != nil {
			s.log.Warn("scheduler lock unavailable, running unlocked", "key", key, "error", err.Error())
		} else if !ok {
			s.log.Debug("scheduler run already in flight elsewhere", "key", key)
			return nil
		} else {
			defer s.redis.Del(context.WithoutCancel(ctx), key)
		}
	}
	return fn(ctx)
}

func (s *PulseScheduler) sweepAllUsers(ctx context.Context) error {
	users, err := s.userRepo.ListActive(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	s.log.Info("starting pulse generation for all users", "count", len(users))

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pulseFanoutLimit)
	for _, u := range users {
		userID := u.ID
		g.Go(func() error {
			if _, err := s.pulses.Regenerate(gctx, userID); err != nil {
				s.log.Error("pulse generation failed", "user_id", userID.String(), "error", err.Error())
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("pulse generation complete", "succeeded", succeeded.Load(), "failed", failed.Load())
	return nil
}

func (s *PulseScheduler) regenerateDue(ctx context.Context) error {
	due, err := s.pulseRepo.ListDueUserIDs(dbctx.Context{Ctx: ctx}, time.Now().UTC())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	s.log.Info("regenerating due pulses", "count", len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pulseFanoutLimit)
	for _, userID := range due {
		userID := userID
		g.Go(func() error {
			if _, err := s.pulses.Regenerate(gctx, userID); err != nil {
				s.log.Error("pulse regeneration failed", "user_id", userID.String(), "error", err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}
