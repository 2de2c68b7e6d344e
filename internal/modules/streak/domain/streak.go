package domain

import (
	"fmt"

	"studystreak/internal/platform/calendar"
	apperrors "studystreak/internal/platform/errors"
)

type ValidationResult struct {
	Broken         bool
	Frozen         bool
	PreviousStreak int
}

// ValidateStreak zeroes a streak whose last study day is more than one day
// behind today. The first break of a positive streak is snapshotted into
// FrozenStreak for a later repair; an existing snapshot is never replaced.
func ValidateStreak(u *UserAggregate, today calendar.Day) ValidationResult {
	res := ValidationResult{PreviousStreak: u.StreakCurrent}
	if u.LastStudyDate.IsZero() || calendar.IsContiguous(u.LastStudyDate, today) {
		return res
	}
	prior := u.StreakCurrent
	if prior != 0 {
		u.StreakCurrent = 0
		res.Broken = true
	}
	if prior > 0 && !u.HasFrozenStreak() {
		u.FrozenStreak = prior
		u.StreakBreakDate = today
		res.Frozen = true
	}
	return res
}

// RepairStreak restores the frozen streak for cost coins and marks today as
// studied so the next validation does not break it again.
func RepairStreak(u *UserAggregate, today calendar.Day, cost int) error {
	if !u.HasFrozenStreak() {
		return apperrors.ErrNothingToRepair
	}
	if u.Coins < cost {
		return fmt.Errorf("%w: repair costs %d coins, have %d", apperrors.ErrInsufficientFunds, cost, u.Coins)
	}
	u.Coins -= cost
	u.StreakCurrent = u.FrozenStreak
	u.FrozenStreak = 0
	u.StreakBreakDate = ""
	u.LastStudyDate = today
	u.raiseLongest()
	return nil
}
