package domain

import "math"

const xpPerLevelStep = 100

type LevelProgress struct {
	CurrentLevel       int
	NextLevel          int
	XPGainedInLevel    float64
	XPRequiredForLevel float64
	ProgressPercent    float64
}

// LevelForXP is floor(sqrt(xp/100)) + 1, so level n starts at (n-1)^2 * 100 XP.
func LevelForXP(xp float64) int {
	if xp < 0 || math.IsNaN(xp) {
		xp = 0
	}
	return int(math.Floor(math.Sqrt(xp/xpPerLevelStep))) + 1
}

// LevelThreshold is the XP at which level starts.
func LevelThreshold(level int) float64 {
	if level < 1 {
		level = 1
	}
	n := float64(level - 1)
	return n * n * xpPerLevelStep
}

func ProgressForXP(xp float64) LevelProgress {
	if xp < 0 || math.IsNaN(xp) {
		xp = 0
	}
	current := LevelForXP(xp)
	start := LevelThreshold(current)
	end := LevelThreshold(current + 1)
	gained := xp - start
	required := end - start
	pct := 0.0
	if required > 0 {
		pct = gained / required * 100
	}
	return LevelProgress{
		CurrentLevel:       current,
		NextLevel:          current + 1,
		XPGainedInLevel:    gained,
		XPRequiredForLevel: required,
		ProgressPercent:    math.Max(0, math.Min(100, pct)),
	}
}
