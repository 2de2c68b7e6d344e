package dto

type CharacterOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnlockDay int    `json:"unlock_day"`
	WorldID   string `json:"world"`
}

type LevelOutput struct {
	XP                 float64 `json:"xp"`
	CurrentLevel       int     `json:"current_level"`
	NextLevel          int     `json:"next_level"`
	XPGainedInLevel    float64 `json:"xp_gained_in_level"`
	XPRequiredForLevel float64 `json:"xp_required_for_level"`
	ProgressPercent    float64 `json:"progress_percent"`
}
