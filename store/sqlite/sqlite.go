/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements absence.Store and absence.TxStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  workers:           Worker records with the holiday balance
  vacation_policies: Yearly entitlement policies
  absence_types:     Absence type catalog
  absences:          One account per (worker, absence type)
  occurrences:       Time-off intervals, soft-deleted via deleted_at
  teams, members:    Team structure

SOFT DELETES:
  Occurrences are never removed; supersede and delete set deleted_at.
  Every occurrence query filters on deleted_at IS NULL.

TIMESTAMPS:
  Stored as RFC3339 text. All records of a deployment share one time
  zone, so lexicographic comparison in SQL matches time order.

TRANSACTIONS:
  WithTx opens a database transaction and hands fn a view whose reads
  and writes all run on the same *sql.Tx. Every query helper takes a
  dbtx, satisfied by both *sql.DB and *sql.Tx.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: readers don't block, single writer at a time.

USAGE:
  st, err := sqlite.New("./data/absence.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - absence/store.go: interface definitions
  - absence/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/absence"
)

// dbtx is the query surface shared by *sql.DB and *sql.Tx. All query
// helpers take it, so the same code serves plain calls and WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements absence.TxStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	// busy_timeout makes a second writer wait for the WAL write lock
	// instead of failing immediately with "database is locked".
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vacation_policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		holidays INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		holidays TEXT NOT NULL,
		vacation_policy_id TEXT REFERENCES vacation_policies(id),
		contract_date TEXT NOT NULL,
		working_week INTEGER NOT NULL DEFAULT 40,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS absence_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		spend_days INTEGER NOT NULL,
		min_duration TEXT NOT NULL,
		max_duration TEXT NOT NULL,
		global_date BOOLEAN NOT NULL DEFAULT FALSE,
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		absence_type_id TEXT NOT NULL REFERENCES absence_types(id),
		UNIQUE(worker_id, absence_type_id)
	);

	CREATE INDEX IF NOT EXISTS idx_absences_worker
		ON absences(worker_id);

	CREATE TABLE IF NOT EXISTS occurrences (
		id TEXT PRIMARY KEY,
		absence_id TEXT NOT NULL REFERENCES absences(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: every create lists the worker's active occurrences
	CREATE INDEX IF NOT EXISTS idx_occurrences_absence_active
		ON occurrences(absence_id, start_time) WHERE deleted_at IS NULL;

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		team_id TEXT NOT NULL REFERENCES teams(id),
		is_referent BOOLEAN NOT NULL DEFAULT FALSE,
		is_representant BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE(worker_id, team_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WORKERS
// =============================================================================

func saveWorker(ctx context.Context, q dbtx, w absence.Worker) error {
	var policyID sql.NullString
	if w.VacationPolicyID != nil {
		policyID = sql.NullString{String: string(*w.VacationPolicyID), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO workers
		(id, first_name, last_name, email, username, category, gender,
		 holidays, vacation_policy_id, contract_date, working_week, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 first_name=excluded.first_name, last_name=excluded.last_name,
		 email=excluded.email, username=excluded.username,
		 category=excluded.category, gender=excluded.gender,
		 holidays=excluded.holidays,
		 vacation_policy_id=excluded.vacation_policy_id,
		 contract_date=excluded.contract_date,
		 working_week=excluded.working_week`,
		w.ID, w.FirstName, w.LastName, w.Email, w.Username, w.Category, w.Gender,
		w.Holidays.String(), policyID,
		w.ContractDate.Format(time.RFC3339), w.WorkingWeek,
		w.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

const workerColumns = `id, first_name, last_name, email, username, category,
	gender, holidays, vacation_policy_id, contract_date, working_week, created_at`

func scanWorker(row interface{ Scan(...any) error }) (*absence.Worker, error) {
	var w absence.Worker
	var holidays, contractDate, createdAt string
	var policyID sql.NullString
	err := row.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Email, &w.Username,
		&w.Category, &w.Gender, &holidays, &policyID, &contractDate,
		&w.WorkingWeek, &createdAt)
	if err != nil {
		return nil, err
	}
	if w.Holidays, err = decimal.NewFromString(holidays); err != nil {
		return nil, fmt.Errorf("bad holidays value %q: %w", holidays, err)
	}
	if policyID.Valid {
		id := absence.PolicyID(policyID.String)
		w.VacationPolicyID = &id
	}
	if w.ContractDate, err = time.Parse(time.RFC3339, contractDate); err != nil {
		return nil, err
	}
	if w.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func getWorker(ctx context.Context, q dbtx, id absence.WorkerID) (*absence.Worker, error) {
	w, err := scanWorker(q.QueryRowContext(ctx,
		`SELECT `+workerColumns+` FROM workers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

func listWorkers(ctx context.Context, q dbtx) ([]absence.Worker, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+workerColumns+` FROM workers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var out []absence.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func deleteWorker(ctx context.Context, q dbtx, id absence.WorkerID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, id)
	return err
}

func (s *Store) SaveWorker(ctx context.Context, w absence.Worker) error {
	return saveWorker(ctx, s.db, w)
}

func (s *Store) GetWorker(ctx context.Context, id absence.WorkerID) (*absence.Worker, error) {
	return getWorker(ctx, s.db, id)
}

func (s *Store) ListWorkers(ctx context.Context) ([]absence.Worker, error) {
	return listWorkers(ctx, s.db)
}

func (s *Store) DeleteWorker(ctx context.Context, id absence.WorkerID) error {
	return deleteWorker(ctx, s.db, id)
}

// =============================================================================
// VACATION POLICIES
// =============================================================================

func savePolicy(ctx context.Context, q dbtx, p absence.VacationPolicy) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO vacation_policies (id, name, description, holidays)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 name=excluded.name, description=excluded.description,
		 holidays=excluded.holidays`,
		p.ID, p.Name, p.Description, p.Holidays,
	)
	if err != nil {
		return fmt.Errorf("failed to save vacation policy: %w", err)
	}
	return nil
}

func getPolicy(ctx context.Context, q dbtx, id absence.PolicyID) (*absence.VacationPolicy, error) {
	var p absence.VacationPolicy
	err := q.QueryRowContext(ctx,
		`SELECT id, name, description, holidays FROM vacation_policies WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Holidays)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func listPolicies(ctx context.Context, q dbtx) ([]absence.VacationPolicy, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, description, holidays FROM vacation_policies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacation policies: %w", err)
	}
	defer rows.Close()

	var out []absence.VacationPolicy
	for rows.Next() {
		var p absence.VacationPolicy
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Holidays); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func deletePolicy(ctx context.Context, q dbtx, id absence.PolicyID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM vacation_policies WHERE id = ?`, id)
	return err
}

func (s *Store) SavePolicy(ctx context.Context, p absence.VacationPolicy) error {
	return savePolicy(ctx, s.db, p)
}

func (s *Store) GetPolicy(ctx context.Context, id absence.PolicyID) (*absence.VacationPolicy, error) {
	return getPolicy(ctx, s.db, id)
}

func (s *Store) ListPolicies(ctx context.Context) ([]absence.VacationPolicy, error) {
	return listPolicies(ctx, s.db)
}

func (s *Store) DeletePolicy(ctx context.Context, id absence.PolicyID) error {
	return deletePolicy(ctx, s.db, id)
}

// =============================================================================
// ABSENCE TYPES
// =============================================================================

func saveAbsenceType(ctx context.Context, q dbtx, t absence.AbsenceType) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO absence_types
		(id, name, description, spend_days, min_duration, max_duration, global_date, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 name=excluded.name, description=excluded.description,
		 spend_days=excluded.spend_days, min_duration=excluded.min_duration,
		 max_duration=excluded.max_duration, global_date=excluded.global_date,
		 color=excluded.color`,
		t.ID, t.Name, t.Description, t.SpendDays,
		t.MinDuration.String(), t.MaxDuration.String(), t.GlobalDate, t.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to save absence type: %w", err)
	}
	return nil
}

const absenceTypeColumns = `id, name, description, spend_days, min_duration,
	max_duration, global_date, color`

func scanAbsenceType(row interface{ Scan(...any) error }) (*absence.AbsenceType, error) {
	var t absence.AbsenceType
	var minDur, maxDur string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.SpendDays,
		&minDur, &maxDur, &t.GlobalDate, &t.Color)
	if err != nil {
		return nil, err
	}
	if t.MinDuration, err = decimal.NewFromString(minDur); err != nil {
		return nil, fmt.Errorf("bad min_duration %q: %w", minDur, err)
	}
	if t.MaxDuration, err = decimal.NewFromString(maxDur); err != nil {
		return nil, fmt.Errorf("bad max_duration %q: %w", maxDur, err)
	}
	return &t, nil
}

func getAbsenceType(ctx context.Context, q dbtx, id absence.AbsenceTypeID) (*absence.AbsenceType, error) {
	t, err := scanAbsenceType(q.QueryRowContext(ctx,
		`SELECT `+absenceTypeColumns+` FROM absence_types WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func listAbsenceTypes(ctx context.Context, q dbtx) ([]absence.AbsenceType, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+absenceTypeColumns+` FROM absence_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list absence types: %w", err)
	}
	defer rows.Close()

	var out []absence.AbsenceType
	for rows.Next() {
		t, err := scanAbsenceType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func deleteAbsenceType(ctx context.Context, q dbtx, id absence.AbsenceTypeID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM absence_types WHERE id = ?`, id)
	return err
}

func (s *Store) SaveAbsenceType(ctx context.Context, t absence.AbsenceType) error {
	return saveAbsenceType(ctx, s.db, t)
}

func (s *Store) GetAbsenceType(ctx context.Context, id absence.AbsenceTypeID) (*absence.AbsenceType, error) {
	return getAbsenceType(ctx, s.db, id)
}

func (s *Store) ListAbsenceTypes(ctx context.Context) ([]absence.AbsenceType, error) {
	return listAbsenceTypes(ctx, s.db)
}

func (s *Store) DeleteAbsenceType(ctx context.Context, id absence.AbsenceTypeID) error {
	return deleteAbsenceType(ctx, s.db, id)
}

// =============================================================================
// ABSENCES (per worker+type accounts)
// =============================================================================

func saveAbsence(ctx context.Context, q dbtx, a absence.Absence) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO absences (id, worker_id, absence_type_id)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID, a.WorkerID, a.AbsenceTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

func getAbsence(ctx context.Context, q dbtx, worker absence.WorkerID, typ absence.AbsenceTypeID) (*absence.Absence, error) {
	var a absence.Absence
	err := q.QueryRowContext(ctx,
		`SELECT id, worker_id, absence_type_id FROM absences
		 WHERE worker_id = ? AND absence_type_id = ?`, worker, typ).
		Scan(&a.ID, &a.WorkerID, &a.AbsenceTypeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func getAbsenceByID(ctx context.Context, q dbtx, id absence.AbsenceID) (*absence.Absence, error) {
	var a absence.Absence
	err := q.QueryRowContext(ctx,
		`SELECT id, worker_id, absence_type_id FROM absences WHERE id = ?`, id).
		Scan(&a.ID, &a.WorkerID, &a.AbsenceTypeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func listAbsencesByWorker(ctx context.Context, q dbtx, worker absence.WorkerID) ([]absence.Absence, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, worker_id, absence_type_id FROM absences
		 WHERE worker_id = ? ORDER BY id`, worker)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	defer rows.Close()

	var out []absence.Absence
	for rows.Next() {
		var a absence.Absence
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.AbsenceTypeID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SaveAbsence(ctx context.Context, a absence.Absence) error {
	return saveAbsence(ctx, s.db, a)
}

func (s *Store) GetAbsence(ctx context.Context, worker absence.WorkerID, typ absence.AbsenceTypeID) (*absence.Absence, error) {
	return getAbsence(ctx, s.db, worker, typ)
}

func (s *Store) GetAbsenceByID(ctx context.Context, id absence.AbsenceID) (*absence.Absence, error) {
	return getAbsenceByID(ctx, s.db, id)
}

func (s *Store) ListAbsencesByWorker(ctx context.Context, worker absence.WorkerID) ([]absence.Absence, error) {
	return listAbsencesByWorker(ctx, s.db, worker)
}

// =============================================================================
// OCCURRENCES
// =============================================================================

func saveOccurrence(ctx context.Context, q dbtx, o absence.Occurrence) error {
	var deletedAt sql.NullString
	if o.DeletedAt != nil {
		deletedAt = sql.NullString{String: o.DeletedAt.Format(time.RFC3339), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO occurrences (id, absence_id, start_time, end_time, deleted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 start_time=excluded.start_time, end_time=excluded.end_time,
		 deleted_at=excluded.deleted_at`,
		o.ID, o.AbsenceID,
		o.StartTime.Format(time.RFC3339), o.EndTime.Format(time.RFC3339),
		deletedAt, o.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save occurrence: %w", err)
	}
	return nil
}

const occurrenceColumns = `o.id, o.absence_id, o.start_time, o.end_time, o.deleted_at, o.created_at`

func scanOccurrence(row interface{ Scan(...any) error }) (*absence.Occurrence, error) {
	var o absence.Occurrence
	var start, end, createdAt string
	var deletedAt sql.NullString
	if err := row.Scan(&o.ID, &o.AbsenceID, &start, &end, &deletedAt, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if o.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
		return nil, err
	}
	if o.EndTime, err = time.Parse(time.RFC3339, end); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339, deletedAt.String)
		if err != nil {
			return nil, err
		}
		o.DeletedAt = &t
	}
	return &o, nil
}

func queryOccurrences(ctx context.Context, q dbtx, query string, args ...any) ([]absence.Occurrence, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query occurrences: %w", err)
	}
	defer rows.Close()

	var out []absence.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func getOccurrence(ctx context.Context, q dbtx, id absence.OccurrenceID) (*absence.Occurrence, error) {
	o, err := scanOccurrence(q.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrences o WHERE o.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func listActiveOccurrences(ctx context.Context, q dbtx, worker absence.WorkerID) ([]absence.Occurrence, error) {
	return queryOccurrences(ctx, q, `
		SELECT `+occurrenceColumns+`
		FROM occurrences o
		JOIN absences a ON a.id = o.absence_id
		WHERE a.worker_id = ? AND o.deleted_at IS NULL
		ORDER BY o.start_time`, worker)
}

func listGlobalDateOccurrences(ctx context.Context, q dbtx, worker absence.WorkerID, start, end time.Time) ([]absence.Occurrence, error) {
	return queryOccurrences(ctx, q, `
		SELECT `+occurrenceColumns+`
		FROM occurrences o
		JOIN absences a ON a.id = o.absence_id
		JOIN absence_types t ON t.id = a.absence_type_id
		WHERE a.worker_id = ? AND o.deleted_at IS NULL AND t.global_date
		  AND o.start_time < ? AND o.end_time > ?
		ORDER BY o.start_time`,
		worker, end.Format(time.RFC3339), start.Format(time.RFC3339))
}

func listOccurrencesInYear(ctx context.Context, q dbtx, worker absence.WorkerID, year int) ([]absence.Occurrence, error) {
	y := strconv.Itoa(year)
	return queryOccurrences(ctx, q, `
		SELECT `+occurrenceColumns+`
		FROM occurrences o
		JOIN absences a ON a.id = o.absence_id
		WHERE a.worker_id = ? AND o.deleted_at IS NULL
		  AND strftime('%Y', o.start_time) = ? AND strftime('%Y', o.end_time) = ?
		ORDER BY o.start_time`, worker, y, y)
}

func markOccurrenceDeleted(ctx context.Context, q dbtx, id absence.OccurrenceID, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE occurrences SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to mark occurrence deleted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return absence.ErrOccurrenceNotFound
	}
	return nil
}

func (s *Store) SaveOccurrence(ctx context.Context, o absence.Occurrence) error {
	return saveOccurrence(ctx, s.db, o)
}

func (s *Store) GetOccurrence(ctx context.Context, id absence.OccurrenceID) (*absence.Occurrence, error) {
	return getOccurrence(ctx, s.db, id)
}

func (s *Store) ListActiveOccurrences(ctx context.Context, worker absence.WorkerID) ([]absence.Occurrence, error) {
	return listActiveOccurrences(ctx, s.db, worker)
}

func (s *Store) ListGlobalDateOccurrences(ctx context.Context, worker absence.WorkerID, start, end time.Time) ([]absence.Occurrence, error) {
	return listGlobalDateOccurrences(ctx, s.db, worker, start, end)
}

func (s *Store) ListOccurrencesInYear(ctx context.Context, worker absence.WorkerID, year int) ([]absence.Occurrence, error) {
	return listOccurrencesInYear(ctx, s.db, worker, year)
}

func (s *Store) MarkOccurrenceDeleted(ctx context.Context, id absence.OccurrenceID, at time.Time) error {
	return markOccurrenceDeleted(ctx, s.db, id, at)
}

// =============================================================================
// TEAMS AND MEMBERS
// =============================================================================

func saveTeam(ctx context.Context, q dbtx, t absence.Team) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO teams (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name`,
		t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

func getTeam(ctx context.Context, q dbtx, id absence.TeamID) (*absence.Team, error) {
	var t absence.Team
	err := q.QueryRowContext(ctx, `SELECT id, name FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func listTeams(ctx context.Context, q dbtx) ([]absence.Team, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var out []absence.Team
	for rows.Next() {
		var t absence.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func deleteTeam(ctx context.Context, q dbtx, id absence.TeamID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	return err
}

func saveMember(ctx context.Context, q dbtx, m absence.Member) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO members (id, worker_id, team_id, is_referent, is_representant)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 is_referent=excluded.is_referent,
		 is_representant=excluded.is_representant`,
		m.ID, m.WorkerID, m.TeamID, m.IsReferent, m.IsRepresentant)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func getMember(ctx context.Context, q dbtx, id absence.MemberID) (*absence.Member, error) {
	var m absence.Member
	err := q.QueryRowContext(ctx,
		`SELECT id, worker_id, team_id, is_referent, is_representant
		 FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.WorkerID, &m.TeamID, &m.IsReferent, &m.IsRepresentant)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func listMembers(ctx context.Context, q dbtx) ([]absence.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, worker_id, team_id, is_referent, is_representant
		 FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var out []absence.Member
	for rows.Next() {
		var m absence.Member
		if err := rows.Scan(&m.ID, &m.WorkerID, &m.TeamID, &m.IsReferent, &m.IsRepresentant); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func deleteMember(ctx context.Context, q dbtx, id absence.MemberID) error {
	_, err := q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	return err
}

func (s *Store) SaveTeam(ctx context.Context, t absence.Team) error {
	return saveTeam(ctx, s.db, t)
}

func (s *Store) GetTeam(ctx context.Context, id absence.TeamID) (*absence.Team, error) {
	return getTeam(ctx, s.db, id)
}

func (s *Store) ListTeams(ctx context.Context) ([]absence.Team, error) {
	return listTeams(ctx, s.db)
}

func (s *Store) DeleteTeam(ctx context.Context, id absence.TeamID) error {
	return deleteTeam(ctx, s.db, id)
}

func (s *Store) SaveMember(ctx context.Context, m absence.Member) error {
	return saveMember(ctx, s.db, m)
}

func (s *Store) GetMember(ctx context.Context, id absence.MemberID) (*absence.Member, error) {
	return getMember(ctx, s.db, id)
}

func (s *Store) ListMembers(ctx context.Context) ([]absence.Member, error) {
	return listMembers(ctx, s.db)
}

func (s *Store) DeleteMember(ctx context.Context, id absence.MemberID) error {
	return deleteMember(ctx, s.db, id)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The view passed to
// fn runs every read and write on the same *sql.Tx, so fn sees its own
// uncommitted changes.
func (s *Store) WithTx(ctx context.Context, fn func(store absence.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the in-transaction view. Each method forwards to the
// shared query helpers with the *sql.Tx as the dbtx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveWorker(ctx context.Context, w absence.Worker) error {
	return saveWorker(ctx, ts.tx, w)
}

func (ts *txStore) GetWorker(ctx context.Context, id absence.WorkerID) (*absence.Worker, error) {
	return getWorker(ctx, ts.tx, id)
}

func (ts *txStore) ListWorkers(ctx context.Context) ([]absence.Worker, error) {
	return listWorkers(ctx, ts.tx)
}

func (ts *txStore) DeleteWorker(ctx context.Context, id absence.WorkerID) error {
	return deleteWorker(ctx, ts.tx, id)
}

func (ts *txStore) SavePolicy(ctx context.Context, p absence.VacationPolicy) error {
	return savePolicy(ctx, ts.tx, p)
}

func (ts *txStore) GetPolicy(ctx context.Context, id absence.PolicyID) (*absence.VacationPolicy, error) {
	return getPolicy(ctx, ts.tx, id)
}

func (ts *txStore) ListPolicies(ctx context.Context) ([]absence.VacationPolicy, error) {
	return listPolicies(ctx, ts.tx)
}

func (ts *txStore) DeletePolicy(ctx context.Context, id absence.PolicyID) error {
	return deletePolicy(ctx, ts.tx, id)
}

func (ts *txStore) SaveAbsenceType(ctx context.Context, t absence.AbsenceType) error {
	return saveAbsenceType(ctx, ts.tx, t)
}

func (ts *txStore) GetAbsenceType(ctx context.Context, id absence.AbsenceTypeID) (*absence.AbsenceType, error) {
	return getAbsenceType(ctx, ts.tx, id)
}

func (ts *txStore) ListAbsenceTypes(ctx context.Context) ([]absence.AbsenceType, error) {
	return listAbsenceTypes(ctx, ts.tx)
}

func (ts *txStore) DeleteAbsenceType(ctx context.Context, id absence.AbsenceTypeID) error {
	return deleteAbsenceType(ctx, ts.tx, id)
}

func (ts *txStore) SaveAbsence(ctx context.Context, a absence.Absence) error {
	return saveAbsence(ctx, ts.tx, a)
}

func (ts *txStore) GetAbsence(ctx context.Context, worker absence.WorkerID, typ absence.AbsenceTypeID) (*absence.Absence, error) {
	return getAbsence(ctx, ts.tx, worker, typ)
}

func (ts *txStore) GetAbsenceByID(ctx context.Context, id absence.AbsenceID) (*absence.Absence, error) {
	return getAbsenceByID(ctx, ts.tx, id)
}

func (ts *txStore) ListAbsencesByWorker(ctx context.Context, worker absence.WorkerID) ([]absence.Absence, error) {
	return listAbsencesByWorker(ctx, ts.tx, worker)
}

func (ts *txStore) SaveOccurrence(ctx context.Context, o absence.Occurrence) error {
	return saveOccurrence(ctx, ts.tx, o)
}

func (ts *txStore) GetOccurrence(ctx context.Context, id absence.OccurrenceID) (*absence.Occurrence, error) {
	return getOccurrence(ctx, ts.tx, id)
}

func (ts *txStore) ListActiveOccurrences(ctx context.Context, worker absence.WorkerID) ([]absence.Occurrence, error) {
	return listActiveOccurrences(ctx, ts.tx, worker)
}

func (ts *txStore) ListGlobalDateOccurrences(ctx context.Context, worker absence.WorkerID, start, end time.Time) ([]absence.Occurrence, error) {
	return listGlobalDateOccurrences(ctx, ts.tx, worker, start, end)
}

func (ts *txStore) ListOccurrencesInYear(ctx context.Context, worker absence.WorkerID, year int) ([]absence.Occurrence, error) {
	return listOccurrencesInYear(ctx, ts.tx, worker, year)
}

func (ts *txStore) MarkOccurrenceDeleted(ctx context.Context, id absence.OccurrenceID, at time.Time) error {
	return markOccurrenceDeleted(ctx, ts.tx, id, at)
}

func (ts *txStore) SaveTeam(ctx context.Context, t absence.Team) error {
	return saveTeam(ctx, ts.tx, t)
}

func (ts *txStore) GetTeam(ctx context.Context, id absence.TeamID) (*absence.Team, error) {
	return getTeam(ctx, ts.tx, id)
}

func (ts *txStore) ListTeams(ctx context.Context) ([]absence.Team, error) {
	return listTeams(ctx, ts.tx)
}

func (ts *txStore) DeleteTeam(ctx context.Context, id absence.TeamID) error {
	return deleteTeam(ctx, ts.tx, id)
}

func (ts *txStore) SaveMember(ctx context.Context, m absence.Member) error {
	return saveMember(ctx, ts.tx, m)
}

func (ts *txStore) GetMember(ctx context.Context, id absence.MemberID) (*absence.Member, error) {
	return getMember(ctx, ts.tx, id)
}

func (ts *txStore) ListMembers(ctx context.Context) ([]absence.Member, error) {
	return listMembers(ctx, ts.tx)
}

func (ts *txStore) DeleteMember(ctx context.Context, id absence.MemberID) error {
	return deleteMember(ctx, ts.tx, id)
}

var (
	_ absence.TxStore = (*Store)(nil)
	_ absence.Store   = (*txStore)(nil)
)
