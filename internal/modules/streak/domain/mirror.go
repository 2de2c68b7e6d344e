package domain

import (
	progression "studystreak/internal/modules/progression/domain"
	"studystreak/internal/platform/calendar"
)

type pendingSession struct {
	id              string
	durationSeconds int
	date            calendar.Day
}

// Mirror is the client-side copy of an aggregate. Sessions apply to it
// optimistically and stay pending until an authoritative snapshot that
// includes them is acknowledged; pending sessions are replayed on top of
// every newer snapshot instead of being discarded. Not safe for concurrent use.
type Mirror struct {
	base    UserAggregate
	pending []pendingSession
	catalog *progression.Catalog
}

func NewMirror(base UserAggregate, catalog *progression.Catalog) *Mirror {
	return &Mirror{base: base.Clone(), catalog: catalog}
}

// Complete records a finished session locally and returns its planned effect.
func (m *Mirror) Complete(sessionID string, durationSeconds int, today calendar.Day) Completion {
	state := m.State()
	completion := PlanCompletion(state, durationSeconds, today, m.catalog)
	m.pending = append(m.pending, pendingSession{id: sessionID, durationSeconds: durationSeconds, date: today})
	return completion
}

// Acknowledge adopts authoritative as the new base and drops the pending
// sessions it already reflects.
func (m *Mirror) Acknowledge(authoritative UserAggregate, sessionIDs ...string) {
	m.base = authoritative.Clone()
	if len(sessionIDs) == 0 {
		return
	}
	acked := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		acked[id] = struct{}{}
	}
	kept := m.pending[:0]
	for _, p := range m.pending {
		if _, ok := acked[p.id]; !ok {
			kept = append(kept, p)
		}
	}
	m.pending = kept
}

// Rekey renames a pending session, used once the server assigns its ledger id.
func (m *Mirror) Rekey(localID, serverID string) {
	for i := range m.pending {
		if m.pending[i].id == localID {
			m.pending[i].id = serverID
		}
	}
}

// Drop forgets a pending session the server rejected.
func (m *Mirror) Drop(sessionID string) {
	kept := m.pending[:0]
	for _, p := range m.pending {
		if p.id != sessionID {
			kept = append(kept, p)
		}
	}
	m.pending = kept
}

// State is the base snapshot with every pending session applied in order.
func (m *Mirror) State() UserAggregate {
	state := m.base.Clone()
	for _, p := range m.pending {
		PlanCompletion(state, p.durationSeconds, p.date, m.catalog).ApplyTo(&state)
	}
	return state
}

func (m *Mirror) Pending() int {
	return len(m.pending)
}
