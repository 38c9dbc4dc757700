package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	userColumns = `id::text, name, username, team_code, latitude, longitude, status, created_at`

	listUsersQuery = `SELECT ` + userColumns + `
FROM users
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR username ILIKE '%' || $1 || '%')
  AND (NOT $2::boolean OR (latitude IS NOT NULL AND longitude IS NOT NULL))
ORDER BY created_at ASC`
	getUserQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	createUserQuery = `INSERT INTO users (name, username, status)
VALUES ($1, $2, TRUE)
RETURNING ` + userColumns
	updateUserQuery = `UPDATE users SET name = $2, username = $3
WHERE id = $1
RETURNING ` + userColumns
	setUserStatusQuery = `UPDATE users SET status = $2
WHERE id = $1
RETURNING ` + userColumns
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.TeamCode, &u.Latitude, &u.Longitude, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns users oldest first.
func (p *Postgres) ListUsers(ctx context.Context, filter entities.UserFilter) ([]entities.User, error) {
	rows, err := p.db.Query(ctx, listUsersQuery, strings.TrimSpace(filter.Search), filter.WithLocation)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			p.log.Errorw("failed to scan user", "error", err)
			return nil, fmt.Errorf("scan users: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		p.log.Errorw("failed to iterate users", "error", err)
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*entities.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, getUserQuery, id))
	if err != nil {
		return nil, mapErr(err, entities.ErrUserNotFound, "get user")
	}
	return u, nil
}

// CreateUser inserts an active user.
func (p *Postgres) CreateUser(ctx context.Context, name, username string) (*entities.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, createUserQuery, name, username))
	if err != nil {
		p.log.Errorw("failed to create user", "error", err, "username", username)
		return nil, mapErr(err, entities.ErrUserNotFound, "create user")
	}
	p.log.Infow("user created", "user_id", u.ID)
	return u, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, id, name, username string) (*entities.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, updateUserQuery, id, name, username))
	if err != nil {
		return nil, mapErr(err, entities.ErrUserNotFound, "update user")
	}
	p.log.Infow("user updated", "user_id", id)
	return u, nil
}

func (p *Postgres) SetUserStatus(ctx context.Context, id string, status bool) (*entities.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, setUserStatusQuery, id, status))
	if err != nil {
		p.log.Errorw("failed to set user status", "error", err, "user_id", id)
		return nil, mapErr(err, entities.ErrUserNotFound, "set user status")
	}
	p.log.Infow("user status updated", "user_id", id, "status", status)
	return u, nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		return mapErr(err, entities.ErrUserNotFound, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrUserNotFound
	}
	p.log.Infow("user deleted", "user_id", id)
	return nil
}
