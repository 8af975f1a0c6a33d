// scheduler.go — планировщик ночного sweep сборки demand packages.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler запускает CheckAndBuild по cron-расписанию.
type Scheduler struct {
	cron    *cron.Cron
	demand  *DemandService
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler создаёт планировщик со стандартным 5-польным
// cron-выражением (минута час день месяц день-недели).
func NewScheduler(demand *DemandService, schedule string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		demand: demand,
		// Sweep качает и склеивает PDF по всем готовым делам,
		// час — заведомо достаточный потолок
		timeout: time.Hour,
		logger:  logger.With(slog.String("component", "scheduler")),
	}

	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		return nil, fmt.Errorf("расписание sweep %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.demand.CheckAndBuild(ctx); err != nil {
		s.logger.Error("Sweep завершился с ошибкой", slog.String("error", err.Error()))
	}
}

// Start запускает планировщик в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Планировщик запущен", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop останавливает планировщик и дожидается завершения текущего запуска.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Планировщик остановлен")
}

// Entries возвращает запланированные задачи.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
