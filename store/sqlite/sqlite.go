/*
Package sqlite provides the SQLite-backed implementation of the leave
engine's storage interfaces.

PURPOSE:
  Implements leave.EmployeeStore, leave.LeaveRequestStore and
  leave.DelegationStore on SQLite. The same patterns apply to PostgreSQL;
  only minor dialect differences.

CANONICAL FIELD NAMES:
  The leave_requests columns use the canonical persisted names storage
  adapters must honor for interoperability: Status, ModificationType,
  ModificationStatus, OriginalEndDate, ActualEndDate, DaysTaken,
  ExtensionDays, DaysRequested. Dates are stored as "YYYY-MM-DD" text.

LEGACY SPELLING NORMALIZATION:
  Rows written by older tooling carry duplicate spellings for the same
  value ("Annual", "annual", "Time-Off"). The adapter normalizes on read
  so the engine only ever sees the canonical closed enums.

LIFECYCLE ENFORCEMENT:
  Requests and delegations are never deleted; there are no DELETE
  statements in this package. UpdateRequest runs a conditional UPDATE
  guarded by the expected status columns - zero rows affected means the
  caller's precondition went stale and leave.ErrConcurrentUpdate is
  returned with nothing written.

SEE ALSO:
  - leave/store.go: interface definitions and the guarded-update contract
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/warp/leave-engine/cycle"
	"github.com/warp/leave-engine/leave"
)

// Store implements the three storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// A second pooled connection to ":memory:" opens a fresh empty
	// database; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Stores bundles the store for engine constructors.
func (s *Store) Stores() leave.Stores {
	return leave.Stores{Employees: s, Requests: s, Delegations: s}
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		ID        TEXT PRIMARY KEY,
		Name      TEXT NOT NULL DEFAULT '',
		Role      TEXT NOT NULL,
		ManagerID TEXT,
		Active    INTEGER NOT NULL DEFAULT 1,
		DaysOwed  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(ManagerID);

	CREATE TABLE IF NOT EXISTS leave_requests (
		ID                 TEXT PRIMARY KEY,
		EmployeeID         TEXT NOT NULL,
		LeaveType          TEXT NOT NULL,
		StartDate          TEXT NOT NULL,
		EndDate            TEXT NOT NULL,
		DaysRequested      INTEGER NOT NULL,
		Reason             TEXT NOT NULL DEFAULT '',
		Status             TEXT NOT NULL,
		ModificationType   TEXT NOT NULL DEFAULT 'none',
		ModificationStatus TEXT NOT NULL DEFAULT 'none',
		ModificationReason TEXT NOT NULL DEFAULT '',
		OriginalEndDate    TEXT NOT NULL DEFAULT '',
		ActualEndDate      TEXT NOT NULL DEFAULT '',
		DaysTaken          INTEGER NOT NULL DEFAULT 0,
		ExtensionDays      INTEGER NOT NULL DEFAULT 0,
		ReviewedBy         TEXT NOT NULL DEFAULT '',
		ReviewedDate       TEXT NOT NULL DEFAULT '',
		ModReviewedBy      TEXT NOT NULL DEFAULT '',
		ModReviewedDate    TEXT NOT NULL DEFAULT '',
		RejectionReason    TEXT NOT NULL DEFAULT '',
		CreatedAt          TEXT NOT NULL,
		UpdatedAt          TEXT NOT NULL
	);

	-- Balance derivation hot path: approved history per employee.
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON leave_requests(EmployeeID, Status);

	CREATE TABLE IF NOT EXISTS delegations (
		ID            TEXT PRIMARY KEY,
		FromManagerID TEXT NOT NULL,
		ToManagerID   TEXT NOT NULL,
		StartDate     TEXT NOT NULL,
		EndDate       TEXT NOT NULL,
		Reason        TEXT NOT NULL DEFAULT '',
		Status        TEXT NOT NULL,
		CreatedAt     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_delegations_to ON delegations(ToManagerID);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// NORMALIZATION - Legacy spellings collapse to the canonical enums
// =============================================================================

func normalizeLeaveType(raw string) cycle.LeaveType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sick":
		return cycle.LeaveSick
	case "compassionate", "bereavement":
		return cycle.LeaveCompassionate
	case "annual", "time-off", "timeoff", "time off":
		return cycle.LeaveAnnual
	default:
		return cycle.LeaveType(strings.ToLower(strings.TrimSpace(raw)))
	}
}

func normalizeStatus(raw string) leave.RequestStatus {
	return leave.RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
}

func normalizeModType(raw string) leave.ModificationType {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return leave.ModificationNone
	}
	return leave.ModificationType(v)
}

func normalizeModStatus(raw string) leave.ModificationStatus {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return leave.ModStatusNone
	}
	return leave.ModificationStatus(v)
}

// dateText stores the zero Date as empty text.
func dateText(d cycle.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// parseDateText tolerates empty and malformed values; the cycle engine
// skips bad intervals anyway, the adapter must not abort a read over one.
func parseDateText(s string) cycle.Date {
	if s == "" {
		return cycle.Date{}
	}
	d, err := cycle.ParseDate(s)
	if err != nil {
		return cycle.Date{}
	}
	return d
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `ID, Name, Role, ManagerID, Active, DaysOwed`

func scanEmployee(row interface{ Scan(...any) error }) (*leave.Employee, error) {
	var e leave.Employee
	var managerID sql.NullString
	var active int
	if err := row.Scan(&e.ID, &e.Name, &e.Role, &managerID, &active, &e.DaysOwed); err != nil {
		return nil, err
	}
	if managerID.Valid && managerID.String != "" {
		id := leave.EmployeeID(managerID.String)
		e.ManagerID = &id
	}
	e.Active = active != 0
	e.Role = leave.Role(strings.ToLower(string(e.Role)))
	return &e, nil
}

// PutEmployee inserts or replaces an employee record. Employee onboarding
// is outside the engine; this exists for seeding and adapters.
func (s *Store) PutEmployee(ctx context.Context, e *leave.Employee) error {
	var managerID any
	if e.ManagerID != nil {
		managerID = string(*e.ManagerID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (ID, Name, Role, ManagerID, Active, DaysOwed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ID) DO UPDATE SET
			Name = excluded.Name, Role = excluded.Role,
			ManagerID = excluded.ManagerID, Active = excluded.Active,
			DaysOwed = excluded.DaysOwed`,
		e.ID, e.Name, e.Role, managerID, boolInt(e.Active), e.DaysOwed)
	return errors.Wrap(err, "upserting employee")
}

func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE ID = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading employee")
	}
	return e, nil
}

func (s *Store) ListByManager(ctx context.Context, managerID leave.EmployeeID) ([]*leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE ManagerID = ? ORDER BY ID`, managerID)
	if err != nil {
		return nil, errors.Wrap(err, "listing employees by manager")
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning employee")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) AdjustDaysOwed(ctx context.Context, id leave.EmployeeID, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET DaysOwed = MAX(0, DaysOwed + ?) WHERE ID = ?`, delta, id)
	if err != nil {
		return errors.Wrap(err, "adjusting days owed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return nil
}

// =============================================================================
// LEAVE REQUEST STORE
// =============================================================================

const requestColumns = `ID, EmployeeID, LeaveType, StartDate, EndDate, DaysRequested,
	Reason, Status, ModificationType, ModificationStatus, ModificationReason,
	OriginalEndDate, ActualEndDate, DaysTaken, ExtensionDays,
	ReviewedBy, ReviewedDate, ModReviewedBy, ModReviewedDate,
	RejectionReason, CreatedAt, UpdatedAt`

func scanRequest(row interface{ Scan(...any) error }) (*leave.LeaveRequest, error) {
	var r leave.LeaveRequest
	var leaveType, status, modType, modStatus string
	var start, end, origEnd, actualEnd, reviewedDate, modReviewedDate string
	var createdAt, updatedAt string

	err := row.Scan(
		&r.ID, &r.EmployeeID, &leaveType, &start, &end, &r.DaysRequested,
		&r.Reason, &status, &modType, &modStatus, &r.Modification.Reason,
		&origEnd, &actualEnd, &r.Modification.DaysTaken, &r.Modification.ExtensionDays,
		&r.ReviewedBy, &reviewedDate, &r.Modification.ReviewedBy, &modReviewedDate,
		&r.RejectionReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.LeaveType = normalizeLeaveType(leaveType)
	r.Status = normalizeStatus(status)
	r.Modification.Type = normalizeModType(modType)
	r.Modification.Status = normalizeModStatus(modStatus)
	r.StartDate = parseDateText(start)
	r.EndDate = parseDateText(end)
	r.Modification.OriginalEndDate = parseDateText(origEnd)
	r.Modification.ActualEndDate = parseDateText(actualEnd)
	r.ReviewedDate = parseDateText(reviewedDate)
	r.Modification.ReviewedDate = parseDateText(modReviewedDate)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		r.UpdatedAt = t
	}
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *leave.LeaveRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.LeaveType, dateText(r.StartDate), dateText(r.EndDate), r.DaysRequested,
		r.Reason, r.Status, r.Modification.Type, r.Modification.Status, r.Modification.Reason,
		dateText(r.Modification.OriginalEndDate), dateText(r.Modification.ActualEndDate),
		r.Modification.DaysTaken, r.Modification.ExtensionDays,
		r.ReviewedBy, dateText(r.ReviewedDate), r.Modification.ReviewedBy, dateText(r.Modification.ReviewedDate),
		r.RejectionReason, r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return errors.Wrap(err, "inserting leave request")
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE ID = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading leave request")
	}
	return r, nil
}

func (s *Store) ListApprovedByEmployee(ctx context.Context, employeeID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	// Status is matched case-insensitively: legacy rows may carry
	// "Approved".
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE EmployeeID = ? AND LOWER(Status) = 'approved' ORDER BY StartDate`, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "listing approved requests")
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning leave request")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRequest applies a guarded partial update in a single transaction:
// read, check guards, write the full row back conditioned on the guard
// columns. Zero rows affected means a concurrent writer got there first.
func (s *Store) UpdateRequest(ctx context.Context, id leave.RequestID, update leave.RequestUpdate) (*leave.LeaveRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning update transaction")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE ID = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading leave request")
	}
	if !update.GuardsMatch(r) {
		return nil, leave.ErrConcurrentUpdate
	}

	guardStatus, guardModStatus := r.Status, r.Modification.Status
	update.Apply(r)
	r.UpdatedAt = time.Now()

	res, err := tx.ExecContext(ctx, `
		UPDATE leave_requests SET
			EndDate = ?, Status = ?,
			ModificationType = ?, ModificationStatus = ?, ModificationReason = ?,
			OriginalEndDate = ?, ActualEndDate = ?, DaysTaken = ?, ExtensionDays = ?,
			ReviewedBy = ?, ReviewedDate = ?, ModReviewedBy = ?, ModReviewedDate = ?,
			RejectionReason = ?, UpdatedAt = ?
		WHERE ID = ? AND LOWER(Status) = ? AND LOWER(ModificationStatus) = ?`,
		dateText(r.EndDate), r.Status,
		r.Modification.Type, r.Modification.Status, r.Modification.Reason,
		dateText(r.Modification.OriginalEndDate), dateText(r.Modification.ActualEndDate),
		r.Modification.DaysTaken, r.Modification.ExtensionDays,
		r.ReviewedBy, dateText(r.ReviewedDate), r.Modification.ReviewedBy, dateText(r.Modification.ReviewedDate),
		r.RejectionReason, r.UpdatedAt.UTC().Format(time.RFC3339),
		id, string(guardStatus), string(guardModStatus),
	)
	if err != nil {
		return nil, errors.Wrap(err, "updating leave request")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, leave.ErrConcurrentUpdate
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing update")
	}
	return r, nil
}

// =============================================================================
// DELEGATION STORE
// =============================================================================

const delegationColumns = `ID, FromManagerID, ToManagerID, StartDate, EndDate, Reason, Status, CreatedAt`

func scanDelegation(row interface{ Scan(...any) error }) (*leave.Delegation, error) {
	var d leave.Delegation
	var start, end, status, createdAt string
	if err := row.Scan(&d.ID, &d.FromManagerID, &d.ToManagerID, &start, &end, &d.Reason, &status, &createdAt); err != nil {
		return nil, err
	}
	d.StartDate = parseDateText(start)
	d.EndDate = parseDateText(end)
	d.Status = leave.DelegationStatus(strings.ToLower(strings.TrimSpace(status)))
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		d.CreatedAt = t
	}
	return &d, nil
}

func (s *Store) CreateDelegation(ctx context.Context, d *leave.Delegation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delegations (`+delegationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FromManagerID, d.ToManagerID, dateText(d.StartDate), dateText(d.EndDate),
		d.Reason, d.Status, d.CreatedAt.UTC().Format(time.RFC3339))
	return errors.Wrap(err, "inserting delegation")
}

func (s *Store) GetDelegation(ctx context.Context, id leave.DelegationID) (*leave.Delegation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+delegationColumns+` FROM delegations WHERE ID = ?`, id)
	d, err := scanDelegation(row)
	if err == sql.ErrNoRows {
		return nil, &leave.NotFoundError{Kind: "delegation", ID: string(id)}
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading delegation")
	}
	return d, nil
}

func (s *Store) ListDelegationsTo(ctx context.Context, toManagerID leave.EmployeeID) ([]*leave.Delegation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+delegationColumns+` FROM delegations WHERE ToManagerID = ? ORDER BY ID`, toManagerID)
	if err != nil {
		return nil, errors.Wrap(err, "listing delegations")
	}
	defer rows.Close()

	var out []*leave.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning delegation")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SetDelegationStatus(ctx context.Context, id leave.DelegationID, expected, next leave.DelegationStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delegations SET Status = ? WHERE ID = ? AND LOWER(Status) = ?`,
		next, id, string(expected))
	if err != nil {
		return errors.Wrap(err, "updating delegation status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Missing row and stale status both land here; disambiguate.
		if _, gerr := s.GetDelegation(ctx, id); gerr != nil {
			return gerr
		}
		return leave.ErrConcurrentUpdate
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
