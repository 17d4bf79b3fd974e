package goals

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"daily-goals-backend/internal/logging"
	"daily-goals-backend/internal/metrics"
)

// Service implements the goal operations on top of Store. Every method
// logs and returns its error; nothing is retried.
type Service struct {
	store   *Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
	loc     *time.Location
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = logging.NewPackageLogger(l, "goals") }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zerolog.Nop(),
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current date key in the service's time zone.
func (s *Service) Today() string {
	return DateKey(s.now().In(s.loc))
}

// log prefers the request logger carried by ctx, which already has the
// request id and user id. The service logger is the fallback.
func (s *Service) log(ctx context.Context, userID int) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return logging.NewPackageLogger(*l, "goals")
	}
	return s.logger.With().Int(logging.USER, userID).Logger()
}

func (s *Service) done(ctx context.Context, op string, userID int, err error) error {
	s.metrics.ObserveOp(op, err)
	if err == nil {
		return nil
	}

	l := s.log(ctx, userID)
	ev := l.Error()
	if IsClientError(err) {
		ev = l.Warn()
	}
	ev.Err(err).Str(logging.OP, op).Msg("goal operation failed")
	return err
}

// resolveDate defaults an empty key to today and rejects malformed keys.
func (s *Service) resolveDate(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	if _, err := ParseDateKey(date); err != nil {
		return "", err
	}
	return date, nil
}

func (s *Service) notInFuture(date string) error {
	if date > s.Today() {
		return ErrFutureDate
	}
	return nil
}

func (s *Service) CurrentGoals(ctx context.Context, userID int) ([]Goal, error) {
	list, err := s.store.CurrentGoals(ctx, userID)
	return list, s.done(ctx, "current_goals", userID, err)
}

// GoalsWithStatus merges the goal list with the completion set of date
// (today when empty), sorted for display.
func (s *Service) GoalsWithStatus(ctx context.Context, userID int, date string) ([]GoalWithStatus, string, error) {
	list, date, err := s.goalsWithStatus(ctx, userID, date)
	return list, date, s.done(ctx, "goals_with_status", userID, err)
}

func (s *Service) goalsWithStatus(ctx context.Context, userID int, date string) ([]GoalWithStatus, string, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, "", err
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	p, _, err := s.store.DailyProgress(ctx, userID, date)
	if err != nil {
		return nil, "", err
	}

	merged := MergeStatus(list, p.CompletedGoalIDs)
	SortForDisplay(merged)
	return merged, date, nil
}

// AddGoal prepends a goal. An empty id is derived from the clock.
func (s *Service) AddGoal(ctx context.Context, userID int, id, text string) (Goal, error) {
	g, err := s.addGoal(ctx, userID, id, text)
	return g, s.done(ctx, "add_goal", userID, err)
}

func (s *Service) addGoal(ctx context.Context, userID int, id, text string) (Goal, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return Goal{}, err
	}
	id = strings.TrimSpace(id)
	if len(id) > maxGoalIDLen {
		return Goal{}, ErrInvalidGoalID
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return Goal{}, err
	}

	now := s.now()
	if id == "" {
		id = NewGoalID(now, list)
	} else if indexOf(list, id) >= 0 {
		return Goal{}, ErrDuplicateGoal
	}

	g := Goal{ID: id, Text: text, Order: 0, CreatedAt: now.UTC()}
	if err := s.store.SaveGoals(ctx, userID, Prepend(list, g)); err != nil {
		return Goal{}, err
	}
	return g, nil
}

func (s *Service) UpdateGoal(ctx context.Context, userID int, id, text string) (Goal, error) {
	g, err := s.updateGoal(ctx, userID, id, text)
	return g, s.done(ctx, "update_goal", userID, err)
}

func (s *Service) updateGoal(ctx context.Context, userID int, id, text string) (Goal, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return Goal{}, err
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return Goal{}, err
	}
	updated, g, ok := ReplaceText(list, id, text)
	if !ok {
		return Goal{}, ErrGoalNotFound
	}
	if err := s.store.SaveGoals(ctx, userID, Renumber(updated)); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// DeleteGoal removes a goal from the list and from the completion set of
// date (today when empty). Other days keep the id as history.
func (s *Service) DeleteGoal(ctx context.Context, userID int, id, date string) error {
	return s.done(ctx, "delete_goal", userID, s.deleteGoal(ctx, userID, id, date))
}

func (s *Service) deleteGoal(ctx context.Context, userID int, id, date string) error {
	if id == "" {
		return ErrGoalNotFound
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return err
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return err
	}
	updated, ok := RemoveGoal(list, id)
	if !ok {
		return ErrGoalNotFound
	}
	if err := s.store.SaveGoals(ctx, userID, updated); err != nil {
		return err
	}

	p, found, err := s.store.DailyProgress(ctx, userID, date)
	if err != nil {
		return err
	}
	if !found || !slices.Contains(p.CompletedGoalIDs, id) {
		return nil
	}
	total := len(updated)
	p.CompletedGoalIDs = SetCompleted(p.CompletedGoalIDs, id, false)
	p.TotalGoals = &total
	p.UpdatedAt = s.now().UTC()
	return s.store.SaveDailyProgress(ctx, userID, p)
}

// ReorderGoals rewrites the list in the order of ids.
func (s *Service) ReorderGoals(ctx context.Context, userID int, ids []string) ([]Goal, error) {
	list, err := s.reorder(ctx, userID, func(list []Goal) ([]Goal, error) {
		return ReorderByIDs(list, ids)
	})
	return list, s.done(ctx, "reorder_goals", userID, err)
}

// MoveGoal moves the goal at index from to index to.
func (s *Service) MoveGoal(ctx context.Context, userID int, from, to int) ([]Goal, error) {
	list, err := s.reorder(ctx, userID, func(list []Goal) ([]Goal, error) {
		return MoveGoal(list, from, to)
	})
	return list, s.done(ctx, "move_goal", userID, err)
}

func (s *Service) reorder(ctx context.Context, userID int, fn func([]Goal) ([]Goal, error)) ([]Goal, error) {
	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated, err := fn(list)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveGoals(ctx, userID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleGoal sets the completion of goal id on date. A nil completed flips
// the current state. The record is written back with the current goal
// count; concurrent toggles are last-write-wins.
func (s *Service) ToggleGoal(ctx context.Context, userID int, date, id string, completed *bool) (DailyProgress, error) {
	p, err := s.toggleGoal(ctx, userID, date, id, completed)
	return p, s.done(ctx, "toggle_goal", userID, err)
}

func (s *Service) toggleGoal(ctx context.Context, userID int, date, id string, completed *bool) (DailyProgress, error) {
	if id == "" {
		return DailyProgress{}, ErrGoalNotFound
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return DailyProgress{}, err
	}
	if err := s.notInFuture(date); err != nil {
		return DailyProgress{}, err
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return DailyProgress{}, err
	}
	p, _, err := s.store.DailyProgress(ctx, userID, date)
	if err != nil {
		return DailyProgress{}, err
	}

	want := !slices.Contains(p.CompletedGoalIDs, id)
	if completed != nil {
		want = *completed
	}
	if want && indexOf(list, id) < 0 {
		return DailyProgress{}, ErrGoalNotFound
	}

	total := len(list)
	p.CompletedGoalIDs = SetCompleted(p.CompletedGoalIDs, id, want)
	p.TotalGoals = &total
	p.UpdatedAt = s.now().UTC()
	if err := s.store.SaveDailyProgress(ctx, userID, p); err != nil {
		return DailyProgress{}, err
	}
	return p, nil
}

func (s *Service) DailyProgress(ctx context.Context, userID int, date string) (DailyProgress, error) {
	p, err := s.dailyProgress(ctx, userID, date)
	return p, s.done(ctx, "daily_progress", userID, err)
}

func (s *Service) dailyProgress(ctx context.Context, userID int, date string) (DailyProgress, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return DailyProgress{}, err
	}
	p, _, err := s.store.DailyProgress(ctx, userID, date)
	return p, err
}

// LogDay replaces the completion set of a past or present day.
func (s *Service) LogDay(ctx context.Context, userID int, date string, ids []string) (DailyProgress, error) {
	p, err := s.logDay(ctx, userID, date, ids)
	return p, s.done(ctx, "log_day", userID, err)
}

func (s *Service) logDay(ctx context.Context, userID int, date string, ids []string) (DailyProgress, error) {
	if _, err := ParseDateKey(date); err != nil {
		return DailyProgress{}, err
	}
	if err := s.notInFuture(date); err != nil {
		return DailyProgress{}, err
	}

	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return DailyProgress{}, err
	}
	ids = UniqueIDs(ids)
	for _, id := range ids {
		if indexOf(list, id) < 0 {
			return DailyProgress{}, ErrGoalNotFound
		}
	}

	total := len(list)
	p := DailyProgress{
		Date:             date,
		CompletedGoalIDs: ids,
		TotalGoals:       &total,
		UpdatedAt:        s.now().UTC(),
	}
	if err := s.store.SaveDailyProgress(ctx, userID, p); err != nil {
		return DailyProgress{}, err
	}
	return p, nil
}

// YearlyProgress returns one point per day of year up to today.
func (s *Service) YearlyProgress(ctx context.Context, userID int, year string) ([]DayProgress, error) {
	points, err := s.yearlyProgress(ctx, userID, year)
	return points, s.done(ctx, "yearly_progress", userID, err)
}

func (s *Service) yearlyProgress(ctx context.Context, userID int, year string) ([]DayProgress, error) {
	if year == "" {
		year = s.Today()[:4]
	}
	y, err := ParseYear(year)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ProgressForYear(ctx, userID, y)
	if err != nil {
		return nil, err
	}
	list, err := s.store.CurrentGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	return FillYear(y, AggregateYear(y, records, len(list)), s.Today()), nil
}
