package services

import (
	"becky-backend/logger"
	"becky-backend/models"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const schedulerLockTTL = 10 * time.Minute

// Cron specs per frequency, in the scheduler's timezone.
var frequencySchedules = map[models.Frequency]string{
	models.FrequencyDaily:   "0 8 * * *",
	models.FrequencyWeekly:  "0 9 * * MON",
	models.FrequencyMonthly: "0 9 1 * *",
}

// Scheduler sends the due report subscriptions on a cron timetable. With a
// Redis client only one instance sends per run.
type Scheduler struct {
	db      *gorm.DB
	reports *ReportService
	redis   *redis.Client
	cron    *cron.Cron
	loc     *time.Location
	now     func() time.Time
}

func NewScheduler(db *gorm.DB, reports *ReportService, rdb *redis.Client, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		db:      db,
		reports: reports,
		redis:   rdb,
		cron:    cron.New(cron.WithLocation(loc)),
		loc:     loc,
		now:     time.Now,
	}
}

func (s *Scheduler) Start() error {
	for frequency, spec := range frequencySchedules {
		frequency := frequency
		if _, err := s.cron.AddFunc(spec, func() {
			if _, err := s.RunDue(context.Background(), frequency); err != nil {
				logger.L.Error("scheduled reports failed", "frequency", frequency, "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s reports: %w", frequency, err)
		}
	}
	s.cron.Start()
	logger.L.Info("report scheduler started", "timezone", s.loc.String())
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.L.Info("report scheduler stopped")
}

// RunDue sends every active subscription of the given frequency and returns
// how many emails went out. A failing subscription is logged and skipped.
func (s *Scheduler) RunDue(ctx context.Context, frequency models.Frequency) (int, error) {
	log := logger.FromContext(ctx).With("frequency", frequency)

	acquired, err := s.lock(ctx, frequency)
	if err != nil {
		log.Warn("scheduler lock unavailable, running anyway", "error", err)
	} else if !acquired {
		log.Info("reports already handled by another instance")
		return 0, nil
	}

	var subs []models.EmailReport
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND frequency = ?", true, frequency).
		Find(&subs).Error; err != nil {
		return 0, fmt.Errorf("load %s reports: %w", frequency, err)
	}
	log.Info("processing reports", "count", len(subs))

	sent := 0
	for _, sub := range subs {
		delivered, err := s.reports.Deliver(ctx, sub)
		if err != nil {
			log.Error("report delivery failed", "reportID", sub.ID, "userID", sub.UserID, "error", err)
			continue
		}
		if delivered {
			sent++
		}

		now := s.now()
		next := CalculateNextSend(frequency, now)
		if err := s.db.WithContext(ctx).Model(&models.EmailReport{}).
			Where("id = ?", sub.ID).
			Updates(map[string]interface{}{"last_sent": now, "next_send": next}).Error; err != nil {
			log.Error("report bookkeeping failed", "reportID", sub.ID, "error", err)
		}
	}
	return sent, nil
}

func (s *Scheduler) lock(ctx context.Context, frequency models.Frequency) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	host, _ := os.Hostname()
	key := fmt.Sprintf("becky:reports:%s:%s", frequency, s.now().In(s.loc).Format("2006-01-02T15"))
	return s.redis.SetNX(ctx, key, host, schedulerLockTTL).Result()
}
