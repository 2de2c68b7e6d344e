package in

import (
	"studystreak/internal/modules/progression/dto"
	progressionin "studystreak/internal/modules/progression/port/in"
)

type CLIHandler struct {
	usecase progressionin.Usecase
}

func NewCLIHandler(usecase progressionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Level(xp float64) dto.LevelOutput {
	return h.usecase.Level(xp)
}

func (h CLIHandler) Characters() []dto.CharacterOutput {
	return h.usecase.Characters()
}

func (h CLIHandler) ActiveCharacter(streak int) dto.CharacterOutput {
	return h.usecase.ActiveCharacter(streak)
}
