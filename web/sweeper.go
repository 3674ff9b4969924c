package web

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
)

// Sweeper periodically deletes results older than ttl, files included.
// A download racing the sweep may find the file gone and gets a 404.
type Sweeper struct {
	store Store
	ttl   time.Duration
	cron  *cron.Cron
	now   func() time.Time
}

func NewSweeper(store Store, ttl time.Duration, schedule string) (*Sweeper, error) {
	s := &Sweeper{store: store, ttl: ttl, now: time.Now}

	logger := cronLogger{util.Logger.Sugar()}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			util.Logger.Error("sweep results", zap.Error(err))
		}
	}); err != nil {
		return nil, errors.Wrapf(err, "invalid sweep schedule %q", schedule)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep removes every expired result and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.store.Expired(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range expired {
		if e.Path != "" {
			if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
				util.Logger.Warn("failed to delete result file", zap.String("file", e.Path), zap.Error(err))
				continue
			}
		}
		if err := s.store.Delete(ctx, e.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		util.Logger.Info("swept expired results", zap.Int("count", removed))
	}
	return removed, nil
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
