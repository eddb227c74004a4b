package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/observability"
)

// UserGetter loads a user by ID
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*auth.User, error)
}

// UserStore reads and writes portal users
type UserStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewUserStore creates a user store. metrics may be nil.
func NewUserStore(db *sql.DB, metrics *observability.Metrics) *UserStore {
	return &UserStore{db: db, metrics: metrics}
}

const userColumns = `id, first_name, last_name, email, role, user_status,
	permissions, data_commons, studies, created_at, updated_at`

// GetUser returns the user with id, or ErrNotFound
func (s *UserStore) GetUser(ctx context.Context, id string) (*auth.User, error) {
	var user *auth.User
	err := instrument(s.metrics, "get_user", func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

		var u auth.User
		var status, permissions, dataCommons, studies string
		err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &status,
			&permissions, &dataCommons, &studies, &u.CreatedAt, &u.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		u.UserStatus = auth.UserStatus(status)
		if err := decodeList(permissions, &u.Permissions); err != nil {
			return err
		}
		if err := decodeList(dataCommons, &u.DataCommons); err != nil {
			return err
		}
		if err := decodeList(studies, &u.Studies); err != nil {
			return err
		}
		user = &u
		return nil
	})
	return user, err
}

// PutUser inserts or replaces a user
func (s *UserStore) PutUser(ctx context.Context, u *auth.User) error {
	if u == nil || u.ID == "" {
		return errors.New("user ID is required")
	}

	return instrument(s.metrics, "put_user", func() error {
		permissions, err := encodeList(nonNil(u.Permissions))
		if err != nil {
			return err
		}
		dataCommons, err := encodeList(nonNil(u.DataCommons))
		if err != nil {
			return err
		}
		studies, err := encodeList(nonNil(u.Studies))
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		if u.UserStatus == "" {
			u.UserStatus = auth.UserStatusActive
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				email = excluded.email,
				role = excluded.role,
				user_status = excluded.user_status,
				permissions = excluded.permissions,
				data_commons = excluded.data_commons,
				studies = excluded.studies,
				updated_at = excluded.updated_at`,
			u.ID, u.FirstName, u.LastName, u.Email, u.Role, string(u.UserStatus),
			permissions, dataCommons, studies, u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to put user: %w", err)
		}
		return nil
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
