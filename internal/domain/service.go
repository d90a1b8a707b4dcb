package domain

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrDayComplete is returned when an add is attempted against a day
	// that has its full 1440 minutes logged.
	ErrDayComplete = errors.New("day already has 24 hours logged")
)

// DayRepository captures whole-value persistence for day ledgers. Load
// returns (nil, nil) when no record exists for the date.
type DayRepository interface {
	LoadDay(ctx context.Context, userID, date string) (*DayRecord, error)
	SaveDay(ctx context.Context, userID, date string, rec DayRecord) error
	MarkAnalyzed(ctx context.Context, userID, date string) error
}

// Insight is the productivity analysis for one day's activities.
type Insight struct {
	Score       int      `json:"productivityScore"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

// Analyzer produces an Insight for a day's activities. Implementations
// never fail: on any internal error they degrade to a placeholder result.
type Analyzer interface {
	AnalyzeDay(ctx context.Context, activities []Activity) Insight
}

// Service orchestrates ledger workflows: load, mutate, persist whole-value.
// Mutations are applied to the in-memory ledger first and then saved; a
// failed save surfaces to the caller without rolling back memory.
type Service struct {
	repo     DayRepository
	analyzer Analyzer
	log      *zap.Logger
}

// NewService constructs a Service.
func NewService(repo DayRepository, analyzer Analyzer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, analyzer: analyzer, log: log}
}

// Day loads the ledger for a date. A missing record and a backend failure
// are treated identically: the caller gets an empty ledger.
func (s *Service) Day(ctx context.Context, userID, date string) *Ledger {
	rec, err := s.repo.LoadDay(ctx, userID, date)
	if err != nil {
		s.log.Warn("day load failed, starting empty",
			zap.String("user_id", userID),
			zap.String("date", date),
			zap.Error(err))
		return NewLedger()
	}
	if rec == nil {
		return NewLedger()
	}
	return LedgerFromRecord(*rec)
}

// AddActivity appends a clamped entry and persists the resulting ledger.
// A completed day rejects the add before the ledger is touched.
func (s *Service) AddActivity(ctx context.Context, userID, date, title string, category Category, hours, minutes int) (Activity, *Ledger, error) {
	ledger := s.Day(ctx, userID, date)
	if ledger.IsDayComplete() {
		return Activity{}, ledger, ErrDayComplete
	}
	added := ledger.Add(title, category, hours, minutes)
	if err := s.repo.SaveDay(ctx, userID, date, ledger.Record(date)); err != nil {
		return Activity{}, ledger, err
	}
	return added, ledger, nil
}

// UpdateActivity edits an entry in place (edit open + commit within one
// call) and persists the resulting ledger.
func (s *Service) UpdateActivity(ctx context.Context, userID, date, activityID, title string, category Category, hours, minutes int) (Activity, *Ledger, error) {
	ledger := s.Day(ctx, userID, date)
	if _, ok := ledger.StartEdit(activityID); !ok {
		return Activity{}, ledger, ErrActivityNotFound
	}
	updated, ok := ledger.CommitEdit(title, category, hours, minutes)
	if !ok {
		return Activity{}, ledger, ErrActivityNotFound
	}
	if err := s.repo.SaveDay(ctx, userID, date, ledger.Record(date)); err != nil {
		return Activity{}, ledger, err
	}
	return updated, ledger, nil
}

// DeleteActivity removes an entry and persists the resulting ledger.
// Deleting an absent ID is a no-op and does not trigger a save.
func (s *Service) DeleteActivity(ctx context.Context, userID, date, activityID string) (*Ledger, error) {
	ledger := s.Day(ctx, userID, date)
	if !ledger.Delete(activityID) {
		return ledger, nil
	}
	if err := s.repo.SaveDay(ctx, userID, date, ledger.Record(date)); err != nil {
		return ledger, err
	}
	return ledger, nil
}

// Analyze generates an insight for the date's activities and marks the day
// analyzed. The analyzer never fails; a failure to persist the advisory
// flag is logged and swallowed so the user still gets their result.
func (s *Service) Analyze(ctx context.Context, userID, date string) (Insight, *Ledger) {
	ledger := s.Day(ctx, userID, date)
	insight := s.analyzer.AnalyzeDay(ctx, ledger.Activities())
	ledger.MarkAnalyzed()
	if err := s.repo.MarkAnalyzed(ctx, userID, date); err != nil {
		s.log.Warn("mark analyzed failed",
			zap.String("user_id", userID),
			zap.String("date", date),
			zap.Error(err))
	}
	return insight, ledger
}
