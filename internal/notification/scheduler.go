package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SummaryScheduler fires the overdue sweep once per day at a fixed UTC
// hour.
type SummaryScheduler struct {
	summarizer *OverdueSummarizer
	hour       int
	logger     *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	// timeNow is replaceable in tests
	timeNow func() time.Time
}

// NewSummaryScheduler creates a scheduler that runs the summarizer
// daily at the given UTC hour. Hours outside 0..23 are clamped.
func NewSummaryScheduler(summarizer *OverdueSummarizer, hour int, logger *slog.Logger) (*SummaryScheduler, error) {
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SummaryScheduler{
		summarizer: summarizer,
		hour:       hour,
		logger:     logger.With("component", "summary_scheduler"),
		ctx:        ctx,
		cancelFunc: cancel,
		timeNow:    time.Now,
	}, nil
}

// Start launches the scheduling goroutine.
func (s *SummaryScheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the scheduling goroutine and waits for it to exit. A
// sweep already in flight finishes its current user before observing
// the cancellation.
func (s *SummaryScheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

func (s *SummaryScheduler) loop() {
	defer s.wg.Done()

	for {
		now := s.timeNow()
		next := nextRunAfter(now, s.hour)
		s.logger.Info("scheduling next overdue sweep", "next_run", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return

		case <-timer.C:
			report, err := s.summarizer.Run(s.ctx, s.timeNow())
			if err != nil {
				s.logger.Error("scheduled overdue sweep failed", "error", err)
				continue
			}
			s.logger.Info("scheduled overdue sweep finished",
				"emails_sent", report.EmailsSent,
				"total_overdue_tasks", report.TotalOverdueTasks)
		}
	}
}

// nextRunAfter returns the next instant strictly after now that falls
// on the given UTC hour.
func nextRunAfter(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
