package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

const alertColumns = `id, title, description, severity, source, target_institution_id,
	target_scope, target_regions, issued_by, active, expires_at, created_at`

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	regions, err := json.Marshal(a.TargetRegions.Normalize())
	if err != nil {
		return fmt.Errorf("error encoding target regions: %w", err)
	}

	var expiresAt sql.NullInt64
	if a.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: a.ExpiresAt.UnixNano(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, string(a.Severity), a.Source, a.TargetInstitutionID,
		string(a.TargetScope), string(regions), a.IssuedBy, a.Active, expiresAt, a.CreatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("alert %s: %w", a.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading alert: %w", err)
	}
	return a, nil
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error) {
	var (
		where []string
		args  []any
	)

	if opts.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *opts.Active)
	}
	if opts.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if opts.ExpiredBefore != nil {
		where = append(where, "expires_at IS NOT NULL AND expires_at <= ?")
		args = append(args, opts.ExpiredBefore.UnixNano())
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// rowid breaks ties between alerts created in the same instant
	query += " ORDER BY created_at DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) SetActive(ctx context.Context, id string, active bool) (*models.Alert, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return nil, fmt.Errorf("error updating alert: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error updating alert: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}

	return s.GetAlert(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(r rowScanner) (*models.Alert, error) {
	var (
		a         models.Alert
		severity  string
		scope     string
		regions   string
		expiresAt sql.NullInt64
		createdAt int64
	)

	err := r.Scan(&a.ID, &a.Title, &a.Description, &severity, &a.Source, &a.TargetInstitutionID,
		&scope, &regions, &a.IssuedBy, &a.Active, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}

	a.Severity = models.Severity(severity)
	a.TargetScope = models.TargetScope(scope)
	// malformed stored regions decode as empty sets
	_ = json.Unmarshal([]byte(regions), &a.TargetRegions)
	a.TargetRegions = a.TargetRegions.Normalize()
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		a.ExpiresAt = &t
	}

	return &a, nil
}
