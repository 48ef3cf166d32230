package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/openbracket/regatta/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// RegistrationRepository implements domain.RegistrationRepository using
// SQLite. Registrations are append-only records: rows are never deleted,
// and after creation only status, payment_ref and status_changed_at change,
// always through a single-row compare-and-swap UPDATE.
type RegistrationRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*RegistrationRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready repository. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*RegistrationRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &RegistrationRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *RegistrationRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *RegistrationRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Fixed-width fraction keeps lexicographic ordering of stored timestamps
// consistent with chronological ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const registrationColumns = `id, event_id, game_id, team_name, email, primary_contact,
	 alternate_contact, fee_tier, roster, amount, currency, payment_ref,
	 status, created_at, status_changed_at`

func (r *RegistrationRepository) Create(ctx context.Context, reg domain.Registration) error {
	roster, err := json.Marshal(reg.Roster)
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.EventID, reg.GameID, reg.TeamName,
		reg.Contact.Email, reg.Contact.Primary, reg.Contact.Alternate,
		string(reg.Tier), string(roster), reg.Amount, reg.Currency,
		reg.PaymentRef, string(reg.Status),
		reg.CreatedAt.Format(timeFormat),
		reg.StatusChangedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	return r.scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id,
	))
}

func (r *RegistrationRepository) FindActive(ctx context.Context, email, gameID string) (domain.Registration, error) {
	return r.scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE email = ? AND game_id = ? AND status != ?
		 ORDER BY created_at DESC LIMIT 1`,
		email, gameID, string(domain.StatusFailed),
	))
}

func (r *RegistrationRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE 1=1`
	var args []any

	if filter.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, filter.EventID)
	}
	if filter.GameID != "" {
		query += ` AND game_id = ?`
		args = append(args, filter.GameID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return r.queryRegistrations(ctx, query, args...)
}

// UpdateStatus is the compare-and-swap transition primitive: the UPDATE only
// matches when the stored status still equals from, so concurrent callers
// race on a single atomic row update and exactly one wins.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET status = ?, status_changed_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC().Format(timeFormat), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return r.casOutcome(ctx, result, id, &domain.ConflictError{ID: id, From: from, To: to})
}

// OpenPayment is the same compare-and-swap specialized for session opening:
// it binds the gateway reference while moving Draft (or a retried
// PendingPayment) to PendingPayment. Terminal rows never match.
func (r *RegistrationRepository) OpenPayment(ctx context.Context, id, ref string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET status = ?, payment_ref = ?, status_changed_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		string(domain.StatusPendingPayment), ref,
		time.Now().UTC().Format(timeFormat), id,
		string(domain.StatusDraft), string(domain.StatusPendingPayment),
	)
	if err != nil {
		return fmt.Errorf("opening payment: %w", err)
	}

	return r.casOutcome(ctx, result, id, &domain.ConflictError{
		ID:   id,
		From: domain.StatusDraft,
		To:   domain.StatusPendingPayment,
	})
}

// casOutcome distinguishes a failed compare-and-swap (conflict) from a
// missing row after a zero-row UPDATE.
func (r *RegistrationRepository) casOutcome(ctx context.Context, result sql.Result, id string, conflict error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE id = ?`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking registration existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrRegistrationNotFound
	}
	return conflict
}

func (r *RegistrationRepository) ListStalePending(ctx context.Context, before time.Time) ([]domain.Registration, error) {
	return r.queryRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE status = ? AND status_changed_at < ?
		 ORDER BY status_changed_at ASC`,
		string(domain.StatusPendingPayment), before.UTC().Format(timeFormat),
	)
}

func (r *RegistrationRepository) queryRegistrations(ctx context.Context, query string, args ...any) ([]domain.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanFields(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning registration row: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// scanRegistration scans a single row from QueryRow into a domain.Registration.
func (r *RegistrationRepository) scanRegistration(row *sql.Row) (domain.Registration, error) {
	reg, err := scanFields(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Registration{}, domain.ErrRegistrationNotFound
		}
		return domain.Registration{}, fmt.Errorf("scanning registration: %w", err)
	}
	return reg, nil
}

func scanFields(scan func(dest ...any) error) (domain.Registration, error) {
	var reg domain.Registration
	var tier, roster, status, createdAt, statusChangedAt string

	err := scan(
		&reg.ID, &reg.EventID, &reg.GameID, &reg.TeamName,
		&reg.Contact.Email, &reg.Contact.Primary, &reg.Contact.Alternate,
		&tier, &roster, &reg.Amount, &reg.Currency, &reg.PaymentRef,
		&status, &createdAt, &statusChangedAt,
	)
	if err != nil {
		return domain.Registration{}, err
	}

	if err := json.Unmarshal([]byte(roster), &reg.Roster); err != nil {
		return domain.Registration{}, fmt.Errorf("decoding roster: %w", err)
	}

	reg.Tier = domain.FeeTier(tier)
	reg.Status = domain.Status(status)
	reg.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	reg.StatusChangedAt, _ = time.Parse(timeFormat, statusChangedAt)

	return reg, nil
}
