package services

import (
	"context"
	"fmt"
	"time"

	"auction-keeper/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronKeeper drives periodic sweeps of the auction house.
type CronKeeper struct {
	cron     *cron.Cron
	keeper   *KeeperService
	interval time.Duration
	log      logger.Logger
}

func NewCronKeeper(keeper *KeeperService, interval time.Duration, log logger.Logger) *CronKeeper {
	return &CronKeeper{
		cron:     cron.New(cron.WithSeconds()),
		keeper:   keeper,
		interval: interval,
		log:      log,
	}
}

func (s *CronKeeper) Start(ctx context.Context) error {
	s.log.Info("Starting keeper sweep loop", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.keeper.RunOnce(ctx); err != nil {
			s.log.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronKeeper) Stop() error {
	s.log.Info("Stopping keeper sweep loop")
	s.cron.Stop()
	return nil
}
