// Package store provides the in-memory Store implementation, used by
// tests and local development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// tables holds the raw record maps. Its methods implement the full
// Store contract without locking; Memory and the transactional view
// layer locking policy on top.
type tables struct {
	workers     map[absence.WorkerID]absence.Worker
	policies    map[absence.PolicyID]absence.VacationPolicy
	types       map[absence.AbsenceTypeID]absence.AbsenceType
	absences    map[absence.AbsenceID]absence.Absence
	occurrences map[absence.OccurrenceID]absence.Occurrence
	teams       map[absence.TeamID]absence.Team
	members     map[absence.MemberID]absence.Member
}

func newTables() *tables {
	return &tables{
		workers:     make(map[absence.WorkerID]absence.Worker),
		policies:    make(map[absence.PolicyID]absence.VacationPolicy),
		types:       make(map[absence.AbsenceTypeID]absence.AbsenceType),
		absences:    make(map[absence.AbsenceID]absence.Absence),
		occurrences: make(map[absence.OccurrenceID]absence.Occurrence),
		teams:       make(map[absence.TeamID]absence.Team),
		members:     make(map[absence.MemberID]absence.Member),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.workers {
		c.workers[k] = v
	}
	for k, v := range t.policies {
		c.policies[k] = v
	}
	for k, v := range t.types {
		c.types[k] = v
	}
	for k, v := range t.absences {
		c.absences[k] = v
	}
	for k, v := range t.occurrences {
		c.occurrences[k] = v
	}
	for k, v := range t.teams {
		c.teams[k] = v
	}
	for k, v := range t.members {
		c.members[k] = v
	}
	return c
}

// --- Workers ---

func (t *tables) SaveWorker(_ context.Context, w absence.Worker) error {
	t.workers[w.ID] = w
	return nil
}

func (t *tables) GetWorker(_ context.Context, id absence.WorkerID) (*absence.Worker, error) {
	if w, ok := t.workers[id]; ok {
		return &w, nil
	}
	return nil, nil
}

func (t *tables) ListWorkers(_ context.Context) ([]absence.Worker, error) {
	out := make([]absence.Worker, 0, len(t.workers))
	for _, w := range t.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeleteWorker(_ context.Context, id absence.WorkerID) error {
	delete(t.workers, id)
	return nil
}

// --- Vacation policies ---

func (t *tables) SavePolicy(_ context.Context, p absence.VacationPolicy) error {
	t.policies[p.ID] = p
	return nil
}

func (t *tables) GetPolicy(_ context.Context, id absence.PolicyID) (*absence.VacationPolicy, error) {
	if p, ok := t.policies[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (t *tables) ListPolicies(_ context.Context) ([]absence.VacationPolicy, error) {
	out := make([]absence.VacationPolicy, 0, len(t.policies))
	for _, p := range t.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeletePolicy(_ context.Context, id absence.PolicyID) error {
	delete(t.policies, id)
	return nil
}

// --- Absence types ---

func (t *tables) SaveAbsenceType(_ context.Context, at absence.AbsenceType) error {
	t.types[at.ID] = at
	return nil
}

func (t *tables) GetAbsenceType(_ context.Context, id absence.AbsenceTypeID) (*absence.AbsenceType, error) {
	if at, ok := t.types[id]; ok {
		return &at, nil
	}
	return nil, nil
}

func (t *tables) ListAbsenceTypes(_ context.Context) ([]absence.AbsenceType, error) {
	out := make([]absence.AbsenceType, 0, len(t.types))
	for _, at := range t.types {
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeleteAbsenceType(_ context.Context, id absence.AbsenceTypeID) error {
	delete(t.types, id)
	return nil
}

// --- Absences ---

func (t *tables) SaveAbsence(_ context.Context, a absence.Absence) error {
	t.absences[a.ID] = a
	return nil
}

func (t *tables) GetAbsence(_ context.Context, worker absence.WorkerID, typ absence.AbsenceTypeID) (*absence.Absence, error) {
	for _, a := range t.absences {
		if a.WorkerID == worker && a.AbsenceTypeID == typ {
			return &a, nil
		}
	}
	return nil, nil
}

func (t *tables) GetAbsenceByID(_ context.Context, id absence.AbsenceID) (*absence.Absence, error) {
	if a, ok := t.absences[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (t *tables) ListAbsencesByWorker(_ context.Context, worker absence.WorkerID) ([]absence.Absence, error) {
	var out []absence.Absence
	for _, a := range t.absences {
		if a.WorkerID == worker {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Occurrences ---

func (t *tables) SaveOccurrence(_ context.Context, o absence.Occurrence) error {
	t.occurrences[o.ID] = o
	return nil
}

func (t *tables) GetOccurrence(_ context.Context, id absence.OccurrenceID) (*absence.Occurrence, error) {
	if o, ok := t.occurrences[id]; ok {
		return &o, nil
	}
	return nil, nil
}

// workerOf resolves the worker owning an occurrence via its absence
// account. Unknown accounts match nothing.
func (t *tables) workerOf(o absence.Occurrence) (absence.WorkerID, bool) {
	a, ok := t.absences[o.AbsenceID]
	if !ok {
		return "", false
	}
	return a.WorkerID, true
}

func (t *tables) ListActiveOccurrences(_ context.Context, worker absence.WorkerID) ([]absence.Occurrence, error) {
	var out []absence.Occurrence
	for _, o := range t.occurrences {
		if !o.Active() {
			continue
		}
		if owner, ok := t.workerOf(o); ok && owner == worker {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (t *tables) ListGlobalDateOccurrences(_ context.Context, worker absence.WorkerID, start, end time.Time) ([]absence.Occurrence, error) {
	requested := absence.Span{Start: start, End: end}
	var out []absence.Occurrence
	for _, o := range t.occurrences {
		if !o.Active() || !o.Span().Overlaps(requested) {
			continue
		}
		a, ok := t.absences[o.AbsenceID]
		if !ok || a.WorkerID != worker {
			continue
		}
		if at, ok := t.types[a.AbsenceTypeID]; ok && at.GlobalDate {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (t *tables) ListOccurrencesInYear(_ context.Context, worker absence.WorkerID, year int) ([]absence.Occurrence, error) {
	var out []absence.Occurrence
	for _, o := range t.occurrences {
		if !o.Active() || o.StartTime.Year() != year || o.EndTime.Year() != year {
			continue
		}
		if owner, ok := t.workerOf(o); ok && owner == worker {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (t *tables) MarkOccurrenceDeleted(_ context.Context, id absence.OccurrenceID, at time.Time) error {
	o, ok := t.occurrences[id]
	if !ok {
		return absence.ErrOccurrenceNotFound
	}
	o.DeletedAt = &at
	t.occurrences[id] = o
	return nil
}

// --- Teams ---

func (t *tables) SaveTeam(_ context.Context, tm absence.Team) error {
	t.teams[tm.ID] = tm
	return nil
}

func (t *tables) GetTeam(_ context.Context, id absence.TeamID) (*absence.Team, error) {
	if tm, ok := t.teams[id]; ok {
		return &tm, nil
	}
	return nil, nil
}

func (t *tables) ListTeams(_ context.Context) ([]absence.Team, error) {
	out := make([]absence.Team, 0, len(t.teams))
	for _, tm := range t.teams {
		out = append(out, tm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeleteTeam(_ context.Context, id absence.TeamID) error {
	delete(t.teams, id)
	return nil
}

// --- Members ---

func (t *tables) SaveMember(_ context.Context, m absence.Member) error {
	t.members[m.ID] = m
	return nil
}

func (t *tables) GetMember(_ context.Context, id absence.MemberID) (*absence.Member, error) {
	if m, ok := t.members[id]; ok {
		return &m, nil
	}
	return nil, nil
}

func (t *tables) ListMembers(_ context.Context) ([]absence.Member, error) {
	out := make([]absence.Member, 0, len(t.members))
	for _, m := range t.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeleteMember(_ context.Context, id absence.MemberID) error {
	delete(t.members, id)
	return nil
}

// =============================================================================
// LOCKED WRAPPER
// =============================================================================

// Memory is a thread-safe in-memory Store.
type Memory struct {
	mu   sync.RWMutex
	data *tables
}

func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

func (m *Memory) read(fn func(*tables) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.data)
}

func (m *Memory) write(fn func(*tables) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.data)
}

func (m *Memory) SaveWorker(ctx context.Context, w absence.Worker) error {
	return m.write(func(t *tables) error { return t.SaveWorker(ctx, w) })
}

func (m *Memory) GetWorker(ctx context.Context, id absence.WorkerID) (w *absence.Worker, err error) {
	err = m.read(func(t *tables) error { w, err = t.GetWorker(ctx, id); return err })
	return w, err
}

func (m *Memory) ListWorkers(ctx context.Context) (ws []absence.Worker, err error) {
	err = m.read(func(t *tables) error { ws, err = t.ListWorkers(ctx); return err })
	return ws, err
}

func (m *Memory) DeleteWorker(ctx context.Context, id absence.WorkerID) error {
	return m.write(func(t *tables) error { return t.DeleteWorker(ctx, id) })
}

func (m *Memory) SavePolicy(ctx context.Context, p absence.VacationPolicy) error {
	return m.write(func(t *tables) error { return t.SavePolicy(ctx, p) })
}

func (m *Memory) GetPolicy(ctx context.Context, id absence.PolicyID) (p *absence.VacationPolicy, err error) {
	err = m.read(func(t *tables) error { p, err = t.GetPolicy(ctx, id); return err })
	return p, err
}

func (m *Memory) ListPolicies(ctx context.Context) (ps []absence.VacationPolicy, err error) {
	err = m.read(func(t *tables) error { ps, err = t.ListPolicies(ctx); return err })
	return ps, err
}

func (m *Memory) DeletePolicy(ctx context.Context, id absence.PolicyID) error {
	return m.write(func(t *tables) error { return t.DeletePolicy(ctx, id) })
}

func (m *Memory) SaveAbsenceType(ctx context.Context, at absence.AbsenceType) error {
	return m.write(func(t *tables) error { return t.SaveAbsenceType(ctx, at) })
}

func (m *Memory) GetAbsenceType(ctx context.Context, id absence.AbsenceTypeID) (at *absence.AbsenceType, err error) {
	err = m.read(func(t *tables) error { at, err = t.GetAbsenceType(ctx, id); return err })
	return at, err
}

func (m *Memory) ListAbsenceTypes(ctx context.Context) (ats []absence.AbsenceType, err error) {
	err = m.read(func(t *tables) error { ats, err = t.ListAbsenceTypes(ctx); return err })
	return ats, err
}

func (m *Memory) DeleteAbsenceType(ctx context.Context, id absence.AbsenceTypeID) error {
	return m.write(func(t *tables) error { return t.DeleteAbsenceType(ctx, id) })
}

func (m *Memory) SaveAbsence(ctx context.Context, a absence.Absence) error {
	return m.write(func(t *tables) error { return t.SaveAbsence(ctx, a) })
}

func (m *Memory) GetAbsence(ctx context.Context, worker absence.WorkerID, typ absence.AbsenceTypeID) (a *absence.Absence, err error) {
	err = m.read(func(t *tables) error { a, err = t.GetAbsence(ctx, worker, typ); return err })
	return a, err
}

func (m *Memory) GetAbsenceByID(ctx context.Context, id absence.AbsenceID) (a *absence.Absence, err error) {
	err = m.read(func(t *tables) error { a, err = t.GetAbsenceByID(ctx, id); return err })
	return a, err
}

func (m *Memory) ListAbsencesByWorker(ctx context.Context, worker absence.WorkerID) (as []absence.Absence, err error) {
	err = m.read(func(t *tables) error { as, err = t.ListAbsencesByWorker(ctx, worker); return err })
	return as, err
}

func (m *Memory) SaveOccurrence(ctx context.Context, o absence.Occurrence) error {
	return m.write(func(t *tables) error { return t.SaveOccurrence(ctx, o) })
}

func (m *Memory) GetOccurrence(ctx context.Context, id absence.OccurrenceID) (o *absence.Occurrence, err error) {
	err = m.read(func(t *tables) error { o, err = t.GetOccurrence(ctx, id); return err })
	return o, err
}

func (m *Memory) ListActiveOccurrences(ctx context.Context, worker absence.WorkerID) (os []absence.Occurrence, err error) {
	err = m.read(func(t *tables) error { os, err = t.ListActiveOccurrences(ctx, worker); return err })
	return os, err
}

func (m *Memory) ListGlobalDateOccurrences(ctx context.Context, worker absence.WorkerID, start, end time.Time) (os []absence.Occurrence, err error) {
	err = m.read(func(t *tables) error {
		os, err = t.ListGlobalDateOccurrences(ctx, worker, start, end)
		return err
	})
	return os, err
}

func (m *Memory) ListOccurrencesInYear(ctx context.Context, worker absence.WorkerID, year int) (os []absence.Occurrence, err error) {
	err = m.read(func(t *tables) error { os, err = t.ListOccurrencesInYear(ctx, worker, year); return err })
	return os, err
}

func (m *Memory) MarkOccurrenceDeleted(ctx context.Context, id absence.OccurrenceID, at time.Time) error {
	return m.write(func(t *tables) error { return t.MarkOccurrenceDeleted(ctx, id, at) })
}

func (m *Memory) SaveTeam(ctx context.Context, tm absence.Team) error {
	return m.write(func(t *tables) error { return t.SaveTeam(ctx, tm) })
}

func (m *Memory) GetTeam(ctx context.Context, id absence.TeamID) (tm *absence.Team, err error) {
	err = m.read(func(t *tables) error { tm, err = t.GetTeam(ctx, id); return err })
	return tm, err
}

func (m *Memory) ListTeams(ctx context.Context) (tms []absence.Team, err error) {
	err = m.read(func(t *tables) error { tms, err = t.ListTeams(ctx); return err })
	return tms, err
}

func (m *Memory) DeleteTeam(ctx context.Context, id absence.TeamID) error {
	return m.write(func(t *tables) error { return t.DeleteTeam(ctx, id) })
}

func (m *Memory) SaveMember(ctx context.Context, mb absence.Member) error {
	return m.write(func(t *tables) error { return t.SaveMember(ctx, mb) })
}

func (m *Memory) GetMember(ctx context.Context, id absence.MemberID) (mb *absence.Member, err error) {
	err = m.read(func(t *tables) error { mb, err = t.GetMember(ctx, id); return err })
	return mb, err
}

func (m *Memory) ListMembers(ctx context.Context) (mbs []absence.Member, err error) {
	err = m.read(func(t *tables) error { mbs, err = t.ListMembers(ctx); return err })
	return mbs, err
}

func (m *Memory) DeleteMember(ctx context.Context, id absence.MemberID) error {
	return m.write(func(t *tables) error { return t.DeleteMember(ctx, id) })
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot restored on error. fn receives the raw
// tables; the store lock is held for the duration, so operations inside
// fn never re-lock.
func (m *Memory) WithTx(_ context.Context, fn func(absence.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

var _ absence.TxStore = (*Memory)(nil)
