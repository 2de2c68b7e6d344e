package domain

import (
	"sort"
	"time"

	"studystreak/internal/platform/calendar"
)

const SchemaVersion = 1

// UserAggregate is the denormalized per-user record. Invariants:
// StreakLongest >= StreakCurrent, 0 <= BankedSeconds < 60,
// TotalStudyMinutes >= TodayStudyMinutes, TotalCharacters == len(UnlockedCharacterIDs).
type UserAggregate struct {
	SchemaVersion        int          `json:"schema_version"`
	UserID               string       `json:"user_id"`
	StreakCurrent        int          `json:"streak_current"`
	StreakLongest        int          `json:"streak_longest"`
	LastStudyDate        calendar.Day `json:"last_study_date,omitempty"`
	FrozenStreak         int          `json:"frozen_streak,omitempty"`
	StreakBreakDate      calendar.Day `json:"streak_break_date,omitempty"`
	BankedSeconds        int          `json:"banked_seconds"`
	Coins                int          `json:"coins"`
	TotalStudyMinutes    float64      `json:"total_study_minutes"`
	TodayStudyMinutes    float64      `json:"today_study_minutes"`
	TodayDate            calendar.Day `json:"today_date,omitempty"`
	CharacterXP          XPMap        `json:"character_xp"`
	UnlockedCharacterIDs []string     `json:"unlocked_character_ids"`
	TotalCharacters      int          `json:"total_characters"`
	Following            []string     `json:"following"`
	Followers            []string     `json:"followers"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

func NewUserAggregate(userID string, now time.Time) UserAggregate {
	return UserAggregate{
		SchemaVersion:        SchemaVersion,
		UserID:               userID,
		CharacterXP:          XPMap{},
		UnlockedCharacterIDs: []string{},
		Following:            []string{},
		Followers:            []string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (u UserAggregate) HasFrozenStreak() bool {
	return u.FrozenStreak > 0
}

func (u UserAggregate) HasUnlocked(characterID string) bool {
	return contains(u.UnlockedCharacterIDs, characterID)
}

// Unlock appends characterID once, keeping unlock order.
func (u *UserAggregate) Unlock(characterID string) bool {
	if u.HasUnlocked(characterID) {
		return false
	}
	u.UnlockedCharacterIDs = append(u.UnlockedCharacterIDs, characterID)
	u.TotalCharacters = len(u.UnlockedCharacterIDs)
	return true
}

func (u *UserAggregate) raiseLongest() {
	if u.StreakCurrent > u.StreakLongest {
		u.StreakLongest = u.StreakCurrent
	}
}

func (u UserAggregate) IsFollowing(userID string) bool {
	return contains(u.Following, userID)
}

func (u *UserAggregate) AddFollowing(userID string) bool {
	if contains(u.Following, userID) {
		return false
	}
	u.Following = append(u.Following, userID)
	return true
}

func (u *UserAggregate) RemoveFollowing(userID string) bool {
	var removed bool
	u.Following, removed = without(u.Following, userID)
	return removed
}

func (u *UserAggregate) AddFollower(userID string) bool {
	if contains(u.Followers, userID) {
		return false
	}
	u.Followers = append(u.Followers, userID)
	return true
}

func (u *UserAggregate) RemoveFollower(userID string) bool {
	var removed bool
	u.Followers, removed = without(u.Followers, userID)
	return removed
}

// Clone deep-copies the slices and the XP map.
func (u UserAggregate) Clone() UserAggregate {
	out := u
	out.CharacterXP = u.CharacterXP.Clone()
	out.UnlockedCharacterIDs = append([]string{}, u.UnlockedCharacterIDs...)
	out.Following = append([]string{}, u.Following...)
	out.Followers = append([]string{}, u.Followers...)
	return out
}

// XPMap holds experience per character id.
type XPMap map[string]int

// Add increments the entry at characterID, creating it when missing.
func (m XPMap) Add(characterID string, delta int) {
	m[characterID] += delta
}

func (m XPMap) Get(characterID string) int {
	return m[characterID]
}

func (m XPMap) Total() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func (m XPMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m XPMap) Clone() XPMap {
	out := make(XPMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) ([]string, bool) {
	out := make([]string, 0, len(list))
	removed := false
	for _, item := range list {
		if item == v {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}
