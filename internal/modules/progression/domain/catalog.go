package domain

import (
	"fmt"
	"sort"
	"strings"
)

type Character struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	UnlockDay int    `yaml:"unlock_day" json:"unlock_day"`
	WorldID   string `yaml:"world" json:"world"`
}

// Catalog is the static unlock table, ordered by UnlockDay.
type Catalog struct {
	characters []Character
}

func NewCatalog(characters []Character) (*Catalog, error) {
	if len(characters) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one character")
	}
	sorted := append([]Character(nil), characters...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UnlockDay < sorted[j].UnlockDay })

	ids := map[string]struct{}{}
	for i, c := range sorted {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("character %d: id is required", i)
		}
		if c.UnlockDay < 1 {
			return nil, fmt.Errorf("character %s: unlock day must be positive", c.ID)
		}
		if _, dup := ids[c.ID]; dup {
			return nil, fmt.Errorf("character %s: duplicate id", c.ID)
		}
		ids[c.ID] = struct{}{}
		if i > 0 && sorted[i-1].UnlockDay == c.UnlockDay {
			return nil, fmt.Errorf("characters %s and %s share unlock day %d", sorted[i-1].ID, c.ID, c.UnlockDay)
		}
	}
	return &Catalog{characters: sorted}, nil
}

func (c *Catalog) Characters() []Character {
	return append([]Character(nil), c.characters...)
}

func (c *Catalog) First() Character {
	return c.characters[0]
}

func (c *Catalog) ByID(id string) (Character, bool) {
	for _, ch := range c.characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Character{}, false
}

// CharacterForStreakDay returns the character unlocked on exactly this streak day.
func (c *Catalog) CharacterForStreakDay(day int) (Character, bool) {
	i := sort.Search(len(c.characters), func(i int) bool { return c.characters[i].UnlockDay >= day })
	if i < len(c.characters) && c.characters[i].UnlockDay == day {
		return c.characters[i], true
	}
	return Character{}, false
}

// ActiveCharacter is the latest unlock reachable with streak, or the first
// character when the streak has not reached any unlock day.
func (c *Catalog) ActiveCharacter(streak int) Character {
	active := c.characters[0]
	for _, ch := range c.characters {
		if ch.UnlockDay > streak {
			break
		}
		active = ch
	}
	return active
}

// NextUnlock is the first character whose unlock day lies beyond streak.
func (c *Catalog) NextUnlock(streak int) (Character, bool) {
	for _, ch := range c.characters {
		if ch.UnlockDay > streak {
			return ch, true
		}
	}
	return Character{}, false
}
