package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BenAji/agora-go/internal/domain/events"
	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/pkg/logger"
)

// Scheduler keeps the event snapshot fresh: it refreshes on an interval and
// whenever a change signal arrives on the feed.
type Scheduler struct {
	eventService events.Service
	hub          *feed.Hub
	interval     time.Duration
	logger       *logger.Logger
	stop         chan struct{}
}

func NewScheduler(eventService events.Service, hub *feed.Hub, interval time.Duration, logger *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		eventService: eventService,
		hub:          hub,
		interval:     interval,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	// Load the snapshot immediately so the first request never waits.
	s.refresh("startup")

	s.logger.Info("Snapshot scheduler initialized",
		zap.Duration("interval", s.interval),
		zap.Time("next_midnight_run", nextMidnight(time.Now())),
	)

	go s.run()
}

// nextMidnight is the start of the day after t, in t's location. The date
// buckets shift at midnight, so the snapshot gets a forced refresh there
// even when the interval has not elapsed.
func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	midnight := time.NewTimer(time.Until(nextMidnight(time.Now())))
	defer midnight.Stop()

	changes, cancel := s.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.refresh("interval")
		case <-midnight.C:
			s.refresh("midnight")
			midnight.Reset(time.Until(nextMidnight(time.Now())))
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.refresh(change.Kind)
		}
	}
}

func (s *Scheduler) refresh(reason string) {
	startTime := time.Now()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelCtx()

	if err := s.eventService.Refresh(ctx); err != nil {
		s.logger.Error("Scheduled snapshot refresh failed",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Scheduled snapshot refresh completed",
		zap.String("reason", reason),
		zap.Duration("duration", time.Since(startTime)),
	)
}
