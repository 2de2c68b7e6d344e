package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/platform/calendar"
	apperrors "studystreak/internal/platform/errors"
)

// minuteEpsilon is the drift below which stored minutes are left alone.
const minuteEpsilon = 0.01

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 366
)

// ReconcileService heals drift between the ledger and the cached aggregate counters.
type ReconcileService struct {
	deps Deps
}

func NewReconcileService(deps Deps) *ReconcileService {
	return &ReconcileService{deps: deps.withDefaults()}
}

type TodaySync struct {
	Date    calendar.Day
	Today   float64
	Total   float64
	Written bool
}

type XPTopUp struct {
	CharacterID string
	Amount      int
	Target      int
	Current     int
}

// SyncToday recomputes today's minutes from the ledger. The total only moves
// by the same difference and never drops below today's recomputed value.
func (s *ReconcileService) SyncToday(ctx context.Context, userID string) (TodaySync, error) {
	ctx, span := tracer().Start(ctx, "reconcile.SyncToday", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	today := s.deps.Calendar.Today()
	out := TodaySync{Date: today}
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		user, err := s.deps.Users.Get(txCtx, userID)
		if err != nil {
			return err
		}
		entries, err := s.deps.Ledger.List(txCtx, userID, today, today)
		if err != nil {
			return err
		}
		calculated := float64(domain.SumSeconds(entries)) / 60

		// Minutes recorded for an earlier day are not today's baseline.
		storedToday := 0.0
		if user.TodayDate == today {
			storedToday = user.TodayStudyMinutes
		}
		total := math.Max(user.TotalStudyMinutes+calculated-storedToday, calculated)

		out.Today, out.Total = calculated, total
		if math.Abs(calculated-user.TodayStudyMinutes) <= minuteEpsilon && math.Abs(total-user.TotalStudyMinutes) <= minuteEpsilon {
			out.Today, out.Total = user.TodayStudyMinutes, user.TotalStudyMinutes
			return nil
		}
		user.TodayStudyMinutes = calculated
		user.TodayDate = today
		user.TotalStudyMinutes = total
		user.UpdatedAt = s.deps.Calendar.Now()
		out.Written = true
		return s.deps.Users.Save(txCtx, user)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync today failed")
		return TodaySync{}, err
	}
	if out.Written {
		s.deps.Recorder.ReconcileWrite("today")
		s.deps.Logger.Info("today minutes reconciled",
			slog.String("user_id", userID),
			slog.Float64("today", out.Today),
			slog.Float64("total", out.Total),
		)
	}
	return out, nil
}

// SyncXP tops character XP up to floor(total minutes * 10). XP is never taken away.
func (s *ReconcileService) SyncXP(ctx context.Context, userID string) (XPTopUp, error) {
	ctx, span := tracer().Start(ctx, "reconcile.SyncXP", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	var out XPTopUp
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		user, err := s.deps.Users.Get(txCtx, userID)
		if err != nil {
			return err
		}
		out = XPTopUp{
			Target:  int(math.Floor(user.TotalStudyMinutes*domain.XPPerMinute + 1e-9)),
			Current: user.CharacterXP.Total(),
		}
		if out.Target <= out.Current {
			return nil
		}
		out.Amount = out.Target - out.Current
		out.CharacterID = s.deps.Catalog.ActiveCharacter(user.StreakCurrent).ID
		if user.CharacterXP == nil {
			user.CharacterXP = domain.XPMap{}
		}
		user.CharacterXP.Add(out.CharacterID, out.Amount)
		user.UpdatedAt = s.deps.Calendar.Now()
		return s.deps.Users.Save(txCtx, user)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync xp failed")
		return XPTopUp{}, err
	}
	if out.Amount > 0 {
		s.deps.Recorder.ReconcileWrite("xp")
		s.deps.Logger.Info("xp topped up",
			slog.String("user_id", userID),
			slog.String("character_id", out.CharacterID),
			slog.Int("amount", out.Amount),
		)
	}
	return out, nil
}

// History returns one summary per day for the last days days, oldest first,
// with empty days included.
func (s *ReconcileService) History(ctx context.Context, userID string, days int) ([]domain.DaySummary, error) {
	if days == 0 {
		days = DefaultHistoryDays
	}
	if days < 0 || days > MaxHistoryDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", apperrors.ErrInvalidInput, MaxHistoryDays)
	}
	if _, err := s.deps.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	to := s.deps.Calendar.Today()
	from := to.AddDays(-(days - 1))
	entries, err := s.deps.Ledger.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[calendar.Day]*domain.DaySummary, days)
	for _, e := range entries {
		sum, ok := byDay[e.Date]
		if !ok {
			sum = &domain.DaySummary{Date: e.Date}
			byDay[e.Date] = sum
		}
		sum.Minutes += float64(e.DurationSeconds) / 60
		sum.Sessions++
	}
	series := make([]domain.DaySummary, 0, days)
	for _, day := range calendar.Range(from, to) {
		if sum, ok := byDay[day]; ok {
			series = append(series, *sum)
			continue
		}
		series = append(series, domain.DaySummary{Date: day})
	}
	return series, nil
}
