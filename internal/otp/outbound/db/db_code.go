package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nikstrim/otpgate/internal/otp/entity"
)

// IssueCode runs the issue transaction: it serializes on the owner with an
// advisory lock, expires every ACTIVE code of that owner, loads the current
// policy, asks build for the replacement code and inserts it.
//
// The advisory lock is transaction scoped, so two concurrent issues for the
// same owner queue up and the later one wins; issues for different owners do
// not contend.
func (s *DB) IssueCode(ctx context.Context, ownerID int64, build func(cfg entity.Config) (entity.Code, error)) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "IssueCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ownerID); err != nil {
		return nil, s.mapError(err)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE otp_codes
		SET status = $2
		WHERE owner_id = $1 AND status = $3`,
		ownerID, entity.StatusExpired, entity.StatusActive,
	); err != nil {
		return nil, s.mapError(err)
	}

	cfg, err := getConfigTx(ctx, tx)
	if err != nil {
		return nil, s.mapError(err)
	}

	code, err := build(cfg)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO otp_codes (id, owner_id, code, status, channel, operation_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		code.ID, code.OwnerID, code.Code, code.Status, code.Channel,
		code.OperationID, code.CreatedAt, code.ExpiresAt,
	); err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &code, nil
}

// ConsumeCode attempts to verify a code. The matching ACTIVE row is locked
// FOR UPDATE so concurrent verifications of the same code serialize; exactly
// one of them observes ACTIVE and consumes it.
func (s *DB) ConsumeCode(ctx context.Context, ownerID int64, code string, now time.Time) (_ entity.VerifyResult, op string, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return entity.VerifyNotFound, "", err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	var (
		id          int64
		operationID string
		expiresAt   time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT id, operation_id, expires_at
		FROM otp_codes
		WHERE owner_id = $1 AND code = $2 AND status = $3
		FOR UPDATE`,
		ownerID, code, entity.StatusActive,
	).Scan(&id, &operationID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.Commit(ctx)
		return entity.VerifyNotFound, "", s.mapError(err)
	}
	if err != nil {
		return entity.VerifyNotFound, "", s.mapError(err)
	}

	next := entity.StatusUsed
	result := entity.VerifyOK
	if now.After(expiresAt) {
		next = entity.StatusExpired
		result = entity.VerifyExpired
	}

	if _, err = tx.Exec(ctx, `UPDATE otp_codes SET status = $2 WHERE id = $1`, id, next); err != nil {
		return entity.VerifyNotFound, "", s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return entity.VerifyNotFound, "", s.mapError(err)
	}

	return result, operationID, nil
}

// SweepExpired transitions every overdue ACTIVE code to EXPIRED in one
// statement. Safe to run concurrently with itself and with verifications.
func (s *DB) SweepExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otp_codes
		SET status = $1
		WHERE status = $2 AND expires_at < $3`,
		entity.StatusExpired, entity.StatusActive, now,
	)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// ListCodesByOwner returns the owner's full code history, newest first.
func (s *DB) ListCodesByOwner(ctx context.Context, ownerID int64) (_ []entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "ListCodesByOwner")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT c.id, c.owner_id, c.code, c.status, c.channel, c.operation_id, c.created_at, c.expires_at, u.username
		FROM otp_codes c
		JOIN users u ON u.id = c.owner_id
		WHERE c.owner_id = $1
		ORDER BY c.created_at DESC`,
		ownerID,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAllCodes returns the code history for every owner, newest first.
func (s *DB) ListAllCodes(ctx context.Context) (_ []entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "ListAllCodes")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT c.id, c.owner_id, c.code, c.status, c.channel, c.operation_id, c.created_at, c.expires_at, u.username
		FROM otp_codes c
		JOIN users u ON u.id = c.owner_id
		ORDER BY c.created_at DESC`,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]entity.Record, error) {
	records := make([]entity.Record, 0)
	for rows.Next() {
		var r entity.Record
		if err := rows.Scan(
			&r.ID, &r.OwnerID, &r.Code.Code, &r.Status, &r.Channel,
			&r.OperationID, &r.CreatedAt, &r.ExpiresAt, &r.Username,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
