package domain

import (
	progression "studystreak/internal/modules/progression/domain"
	"studystreak/internal/platform/calendar"
)

const (
	SecondsPerCoin = 60
	XPPerMinute    = 10
)

// Completion is the effect of one finished session on an aggregate. It is
// planned against a snapshot and applied with ApplyTo, so a client-side
// mirror and the authoritative store run the exact same arithmetic.
type Completion struct {
	Date            calendar.Day
	DurationSeconds int
	// NoOp marks a zero-length session: it is logged but changes nothing.
	NoOp           bool
	FirstOfDay     bool
	EarnedCoins    int
	BankedSeconds  int
	SessionMinutes float64
	XPCharacterID  string
	XPEarned       int
	PreviousStreak int
	StreakReset    bool
	NewStreak      int
	LongestStreak  int
	Unlocked       *progression.Character
}

// PlanCompletion computes the outcome of a durationSeconds session finished on today.
//
// Coins bank at one per 60 cumulative seconds with the remainder carried in
// BankedSeconds. Minutes stay fractional for XP and time tracking. Only the
// first session of a day moves the streak: a gap of at most one calendar day
// keeps it, a longer gap restarts it at 1.
func PlanCompletion(u UserAggregate, durationSeconds int, today calendar.Day, catalog *progression.Catalog) Completion {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	c := Completion{
		Date:            today,
		DurationSeconds: durationSeconds,
		PreviousStreak:  u.StreakCurrent,
		NewStreak:       u.StreakCurrent,
		LongestStreak:   u.StreakLongest,
		BankedSeconds:   u.BankedSeconds,
	}
	if durationSeconds == 0 {
		c.NoOp = true
		return c
	}

	banked := u.BankedSeconds + durationSeconds
	c.EarnedCoins = banked / SecondsPerCoin
	c.BankedSeconds = banked % SecondsPerCoin
	c.SessionMinutes = float64(durationSeconds) / 60
	c.XPEarned = durationSeconds * XPPerMinute / 60

	if calendar.IsCompletedToday(u.LastStudyDate, today) {
		c.XPCharacterID = catalog.ActiveCharacter(u.StreakCurrent).ID
		return c
	}

	c.FirstOfDay = true
	effective := u.StreakCurrent
	if !calendar.IsContiguous(u.LastStudyDate, today) {
		effective = 0
		c.StreakReset = u.StreakCurrent > 0
	}
	c.NewStreak = effective + 1
	if c.NewStreak > c.LongestStreak {
		c.LongestStreak = c.NewStreak
	}
	if character, ok := catalog.CharacterForStreakDay(c.NewStreak); ok && !u.HasUnlocked(character.ID) {
		unlocked := character
		c.Unlocked = &unlocked
	}
	c.XPCharacterID = catalog.ActiveCharacter(c.NewStreak).ID
	return c
}

// ApplyTo mutates u. Counters are applied as increments; the streak fields,
// banked remainder and (on a new day) today's minutes are replaced.
func (c Completion) ApplyTo(u *UserAggregate) {
	if c.NoOp {
		return
	}
	if u.CharacterXP == nil {
		u.CharacterXP = XPMap{}
	}
	u.Coins += c.EarnedCoins
	u.BankedSeconds = c.BankedSeconds
	u.TotalStudyMinutes += c.SessionMinutes
	if c.XPEarned > 0 {
		u.CharacterXP.Add(c.XPCharacterID, c.XPEarned)
	}
	if !c.FirstOfDay {
		// A repaired streak marks today as studied while today's minutes
		// still belong to the last real study day.
		if u.TodayDate != c.Date {
			u.TodayStudyMinutes = 0
		}
		u.TodayStudyMinutes += c.SessionMinutes
		u.TodayDate = c.Date
		return
	}
	u.StreakCurrent = c.NewStreak
	u.LastStudyDate = c.Date
	u.raiseLongest()
	if c.Unlocked != nil {
		u.Unlock(c.Unlocked.ID)
	}
	u.TodayStudyMinutes = c.SessionMinutes
	u.TodayDate = c.Date
}
