package usecase

import (
	"studystreak/internal/modules/progression/domain"
	"studystreak/internal/modules/progression/dto"
	progressionin "studystreak/internal/modules/progression/port/in"
)

type Interactor struct {
	catalog *domain.Catalog
}

func NewInteractor(catalog *domain.Catalog) progressionin.Usecase {
	return &Interactor{catalog: catalog}
}

func (i *Interactor) Level(xp float64) dto.LevelOutput {
	p := domain.ProgressForXP(xp)
	return dto.LevelOutput{
		XP:                 xp,
		CurrentLevel:       p.CurrentLevel,
		NextLevel:          p.NextLevel,
		XPGainedInLevel:    p.XPGainedInLevel,
		XPRequiredForLevel: p.XPRequiredForLevel,
		ProgressPercent:    p.ProgressPercent,
	}
}

func (i *Interactor) Characters() []dto.CharacterOutput {
	chars := i.catalog.Characters()
	out := make([]dto.CharacterOutput, 0, len(chars))
	for _, c := range chars {
		out = append(out, toOutput(c))
	}
	return out
}

func (i *Interactor) CharacterForStreakDay(day int) (dto.CharacterOutput, bool) {
	c, ok := i.catalog.CharacterForStreakDay(day)
	if !ok {
		return dto.CharacterOutput{}, false
	}
	return toOutput(c), true
}

func (i *Interactor) ActiveCharacter(streak int) dto.CharacterOutput {
	return toOutput(i.catalog.ActiveCharacter(streak))
}

func toOutput(c domain.Character) dto.CharacterOutput {
	return dto.CharacterOutput{ID: c.ID, Name: c.Name, UnlockDay: c.UnlockDay, WorldID: c.WorldID}
}
