package db

import (
	"context"
	"time"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/goerror"
)

const userColumns = `id, username, password_hash, enabled, roles, telegram_chat_id, created_at`

type userRow struct {
	ID             int64
	Username       string
	PasswordHash   string
	Enabled        bool
	Roles          []string
	TelegramChatID *int64
	CreatedAt      time.Time
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		Enabled:        r.Enabled,
		Roles:          entity.NewRoles(r.Roles),
		TelegramChatID: r.TelegramChatID,
		CreatedAt:      r.CreatedAt,
	}
}

func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, enabled, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.PasswordHash, user.Enabled,
		entity.RoleNames(user.Roles), user.CreatedAt,
	)

	err = s.mapError(err)
	return err
}

func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	var row userRow
	err = s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1`,
		username,
	).Scan(&row.ID, &row.Username, &row.PasswordHash, &row.Enabled, &row.Roles, &row.TelegramChatID, &row.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return row.toEntity(), nil
}

func (s *DB) GetUserByTelegramChatID(ctx context.Context, chatID int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByTelegramChatID")
	defer func() { s.endSpan(span, err) }()

	var row userRow
	err = s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE telegram_chat_id = $1`,
		chatID,
	).Scan(&row.ID, &row.Username, &row.PasswordHash, &row.Enabled, &row.Roles, &row.TelegramChatID, &row.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return row.toEntity(), nil
}

func (s *DB) ListUsers(ctx context.Context, limit, offset int32) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "ListUsers")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0, limit)
	for rows.Next() {
		var row userRow
		if err = rows.Scan(&row.ID, &row.Username, &row.PasswordHash, &row.Enabled, &row.Roles, &row.TelegramChatID, &row.CreatedAt); err != nil {
			err = s.mapError(err)
			return nil, err
		}
		users = append(users, *row.toEntity())
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return users, nil
}

// DeleteUser removes the account. One-time codes reference users with
// ON DELETE CASCADE, so the user's OTP history goes with it.
func (s *DB) DeleteUser(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) SetTelegramChatID(ctx context.Context, userID int64, chatID *int64) (err error) {
	ctx, span := s.startSpan(ctx, "SetTelegramChatID")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE users
		SET telegram_chat_id = $2
		WHERE id = $1`,
		userID, chatID,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
