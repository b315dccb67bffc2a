package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/task-tracker-api/internal/domain"
	"go.uber.org/zap"
)

type taskSource interface {
	ListIncomplete(ctx context.Context) ([]domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
}

type userSource interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	SendTaskReminder(ctx context.Context, to string, t *domain.Task) error
	SendWeeklyReport(ctx context.Context, to, name string, stats domain.TaskStats) error
}

type Service interface {
	SendDueReminders(ctx context.Context) (int, error)
	SendWeeklyReports(ctx context.Context) (int, error)
}

type ServiceDeps struct {
	Tasks    taskSource
	Users    userSource
	Notifier notifier
	Log      *zap.Logger
	Now      func() time.Time
}

type service struct {
	tasks    taskSource
	users    userSource
	notifier notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{tasks: d.Tasks, users: d.Users, notifier: d.Notifier, log: d.Log, now: d.Now}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SendDueReminders mails the owner of every incomplete task due tomorrow
// (UTC calendar day) and returns how many reminders went out.
func (s *service) SendDueReminders(ctx context.Context) (int, error) {
	from, to := tomorrow(s.now())
	tasks, err := s.tasks.ListIncomplete(ctx)
	if err != nil {
		return 0, fmt.Errorf("list incomplete tasks: %w", err)
	}

	owners := map[string]*domain.User{}
	sent := 0
	for i := range tasks {
		t := &tasks[i]
		if t.IsCompleted || t.DueDate.Before(from) || !t.DueDate.Before(to) {
			continue
		}
		u, err := s.owner(ctx, owners, t.UserID)
		if err != nil {
			return sent, err
		}
		if u == nil {
			continue
		}
		if err := s.notifier.SendTaskReminder(ctx, u.Email, t); err != nil {
			s.log.Warn("reminder failed", zap.String("task_id", t.TaskID), zap.Error(err))
			continue
		}
		sent++
	}
	s.log.Info("due reminders sent", zap.Int("sent", sent), zap.Time("window_start", from))
	return sent, nil
}

// SendWeeklyReports mails a productivity digest to every user with tasks.
func (s *service) SendWeeklyReports(ctx context.Context) (int, error) {
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}
	byUser := map[string][]domain.Task{}
	for _, t := range tasks {
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}
	userIDs := make([]string, 0, len(byUser))
	for uid := range byUser {
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	now := s.now()
	owners := map[string]*domain.User{}
	sent := 0
	for _, uid := range userIDs {
		u, err := s.owner(ctx, owners, uid)
		if err != nil {
			return sent, err
		}
		if u == nil {
			continue
		}
		stats := domain.ComputeTaskStats(byUser[uid], now)
		if err := s.notifier.SendWeeklyReport(ctx, u.Email, u.Name, stats); err != nil {
			s.log.Warn("weekly report failed", zap.String("user_id", uid), zap.Error(err))
			continue
		}
		sent++
	}
	s.log.Info("weekly reports sent", zap.Int("sent", sent), zap.Int("users", len(userIDs)))
	return sent, nil
}

// owner resolves and caches a task owner. Unknown owners resolve to nil and
// are logged once.
func (s *service) owner(ctx context.Context, cache map[string]*domain.User, userID string) (*domain.User, error) {
	if u, ok := cache[userID]; ok {
		return u, nil
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("skipping tasks of unknown user", zap.String("user_id", userID))
		cache[userID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	cache[userID] = u
	return u, nil
}

// tomorrow returns [start of tomorrow, start of the day after) in UTC.
func tomorrow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.UTC().Date()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
