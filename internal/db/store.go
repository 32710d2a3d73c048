package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rapid-dispatch/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateCall(ctx context.Context, call models.EmergencyCall) error {
	location, err := json.Marshal(call.Location)
	if err != nil {
		return err
	}
	analysis, err := json.Marshal(call.AnalysisResult)
	if err != nil {
		return err
	}
	transcript, err := json.Marshal(call.Transcript)
	if err != nil {
		return err
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO emergency_calls (id, caller_number, status, location, analysis, transcript, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		call.ID, call.CallerNumber, call.Status, location, analysis, transcript, call.CreatedAt, call.UpdatedAt)
	return err
}

func (s *Store) ListCalls(ctx context.Context, status string, limit, offset int) ([]models.EmergencyCall, error) {
	query := `SELECT id, caller_number, status, location, analysis, transcript, created_at, updated_at, resolved_at FROM emergency_calls`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC"
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmergencyCall
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, call)
	}
	return out, rows.Err()
}

func (s *Store) GetCall(ctx context.Context, id string) (models.EmergencyCall, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, caller_number, status, location, analysis, transcript, created_at, updated_at, resolved_at
		FROM emergency_calls WHERE id = $1`, id)
	return scanCall(row)
}

// ErrTerminalStatus is returned when a lifecycle change is requested
// for a call that already reached resolved or closed.
var ErrTerminalStatus = errors.New("call already in terminal status")

// TransitionStatus advances a call's lifecycle state under a row lock,
// so concurrent transitions cannot race past the terminal check.
// Reaching a terminal state stamps resolved_at.
func (s *Store) TransitionStatus(ctx context.Context, id string, status models.CallStatus) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var current models.CallStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM emergency_calls WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			return err
		}
		if current.Terminal() {
			return ErrTerminalStatus
		}

		now := time.Now().UTC()
		var resolvedAt *time.Time
		if status.Terminal() {
			resolvedAt = &now
		}
		_, err := tx.Exec(ctx, `
			UPDATE emergency_calls SET status = $2, updated_at = $3, resolved_at = COALESCE(resolved_at, $4)
			WHERE id = $1`, id, status, now, resolvedAt)
		return err
	})
}

// UpdateAnalysis replaces a call's analysis and location in one
// row-level write, so concurrent completions cannot lose each other's
// updates the way a read-modify-write of a whole list would.
func (s *Store) UpdateAnalysis(ctx context.Context, id string, analysis models.AnalysisResult, location models.Location) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	locationJSON, err := json.Marshal(location)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE emergency_calls SET analysis = $2, location = $3, updated_at = $4
		WHERE id = $1`, id, analysisJSON, locationJSON, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCall(row pgx.Row) (models.EmergencyCall, error) {
	var call models.EmergencyCall
	var location, analysis, transcript []byte
	if err := row.Scan(&call.ID, &call.CallerNumber, &call.Status, &location, &analysis, &transcript,
		&call.CreatedAt, &call.UpdatedAt, &call.ResolvedAt); err != nil {
		return models.EmergencyCall{}, err
	}
	if err := json.Unmarshal(location, &call.Location); err != nil {
		return models.EmergencyCall{}, err
	}
	if err := json.Unmarshal(analysis, &call.AnalysisResult); err != nil {
		return models.EmergencyCall{}, err
	}
	if err := json.Unmarshal(transcript, &call.Transcript); err != nil {
		return models.EmergencyCall{}, err
	}
	return call, nil
}
