package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReminderSender delivers a reminder for a user's upcoming transactions
type ReminderSender interface {
	SendRecurringReminder(user models.User, due []models.Transaction) error
}

// Reminders periodically notifies users about recurring transactions falling due
type Reminders struct {
	store  repository.Storage
	sender ReminderSender
	log    *logrus.Logger
	cfg    config.ReminderConfig
	now    func() time.Time
	cron   *cron.Cron
}

// NewReminders initializes the reminder job
func NewReminders(store repository.Storage, sender ReminderSender, log *logrus.Logger, cfg config.ReminderConfig) *Reminders {
	return &Reminders{
		store:  store,
		sender: sender,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
		cron:   cron.New(),
	}
}

// Start schedules the job on the configured cron expression
func (r *Reminders) Start() error {
	_, err := r.cron.AddFunc(r.cfg.Schedule, func() {
		sent, err := r.Run(context.Background())
		if err != nil {
			r.log.Errorf("Reminder run failed: %v", err)
			return
		}
		r.log.Infof("Reminder run finished: %d emails sent", sent)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	r.cron.Start()
	r.log.Infof("Reminders scheduled: %s", r.cfg.Schedule)
	return nil
}

// Stop halts scheduling; the returned context is done once a running job finishes
func (r *Reminders) Stop() context.Context {
	return r.cron.Stop()
}

// Run sends one reminder per user with transactions due in the window and
// returns the number of emails sent. Failed sends are logged and skipped.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	today := r.now()
	var sent atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, user := range users {
		g.Go(func() error {
			txs, err := r.store.GetTransactions(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to load transactions of user %d: %w", user.ID, err)
			}
			due := DueTransactions(txs, today, r.cfg.DaysAhead)
			if len(due) == 0 {
				return nil
			}
			if err := r.sender.SendRecurringReminder(user, due); err != nil {
				r.log.WithError(err).Warnf("Reminder for user %d not delivered", user.ID)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(sent.Load()), err
}

// DueTransactions selects recurring transactions whose next due date lies in
// [today, today+daysAhead] and that have not passed their end date.
func DueTransactions(txs []models.Transaction, today time.Time, daysAhead int) []models.Transaction {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, daysAhead)

	var due []models.Transaction
	for _, t := range txs {
		if t.IsRecurring == nil || !*t.IsRecurring || t.NextDueDate == nil {
			continue
		}
		next, err := models.ParseDate(*t.NextDueDate)
		if err != nil || next.Before(start) || next.After(end) {
			continue
		}
		if t.HasEndDate != nil && *t.HasEndDate && t.EndDate != nil {
			if endDate, err := models.ParseDate(*t.EndDate); err == nil && next.After(endDate) {
				continue
			}
		}
		due = append(due, t)
	}
	return due
}
