package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	progression "studystreak/internal/modules/progression/domain"
	streakout "studystreak/internal/modules/streak/port/out"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/id"
	"studystreak/internal/platform/logging"
	"studystreak/internal/platform/metrics"
	"studystreak/internal/platform/tx"
)

const DefaultRepairCost = 400

// Deps is shared by the streak, reconcile and social services.
type Deps struct {
	Calendar   calendar.Calendar
	IDs        id.Generator
	Catalog    *progression.Catalog
	Tx         tx.Manager
	Users      streakout.AggregateStore
	Ledger     streakout.Ledger
	Feed       streakout.ActivityFeed
	Recorder   streakout.Recorder
	Logger     *slog.Logger
	RepairCost int
}

func (d Deps) withDefaults() Deps {
	if d.IDs == nil {
		d.IDs = id.UUID{}
	}
	if d.Tx == nil {
		d.Tx = tx.NoopManager{}
	}
	if d.Recorder == nil {
		d.Recorder = metrics.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.RepairCost <= 0 {
		d.RepairCost = DefaultRepairCost
	}
	return d
}

func tracer() trace.Tracer {
	return otel.Tracer("studystreak/streak")
}
