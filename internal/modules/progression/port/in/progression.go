package in

import "studystreak/internal/modules/progression/dto"

type Usecase interface {
	Level(xp float64) dto.LevelOutput
	Characters() []dto.CharacterOutput
	CharacterForStreakDay(day int) (dto.CharacterOutput, bool)
	ActiveCharacter(streak int) dto.CharacterOutput
}
