package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nikstrim/otpgate/internal/otp/entity"
)

// The policy table holds a single row keyed by id 1. The row is created
// lazily with defaults the first time anyone reads it.

func getConfigTx(ctx context.Context, tx pgx.Tx) (entity.Config, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO otp_config (id, code_length, lifetime_minutes)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`,
		entity.DefaultConfig.CodeLength, entity.DefaultConfig.LifetimeMinutes,
	)
	if err != nil {
		return entity.Config{}, err
	}

	var cfg entity.Config
	err = tx.QueryRow(ctx, `SELECT code_length, lifetime_minutes FROM otp_config WHERE id = 1`).
		Scan(&cfg.CodeLength, &cfg.LifetimeMinutes)
	if err != nil {
		return entity.Config{}, err
	}

	return cfg, nil
}

// GetConfig returns the current issuing policy, materializing defaults when
// no administrator has set one yet.
func (s *DB) GetConfig(ctx context.Context) (_ entity.Config, err error) {
	ctx, span := s.startSpan(ctx, "GetConfig")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO otp_config (id, code_length, lifetime_minutes)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`,
		entity.DefaultConfig.CodeLength, entity.DefaultConfig.LifetimeMinutes,
	)
	if err != nil {
		err = s.mapError(err)
		return entity.Config{}, err
	}

	var cfg entity.Config
	err = s.conn.QueryRow(ctx, `SELECT code_length, lifetime_minutes FROM otp_config WHERE id = 1`).
		Scan(&cfg.CodeLength, &cfg.LifetimeMinutes)
	if err != nil {
		err = s.mapError(err)
		return entity.Config{}, err
	}

	return cfg, nil
}

// UpdateConfig replaces the issuing policy. Codes issued before the change
// keep the expiry they were stamped with.
func (s *DB) UpdateConfig(ctx context.Context, cfg entity.Config) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateConfig")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO otp_config (id, code_length, lifetime_minutes)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET code_length = EXCLUDED.code_length, lifetime_minutes = EXCLUDED.lifetime_minutes`,
		cfg.CodeLength, cfg.LifetimeMinutes,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}

	return nil
}
