package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticketmarket/entity"
)

const userColumns = `user_id, email, display_name, photo_url, role, is_fraud, created_at, last_logged_in`

type UsersPostgresRepository struct {
	db *sqlx.DB
}

func NewUsersPostgresRepository(db *sqlx.DB) *UsersPostgresRepository {
	if db == nil {
		panic("db must be set")
	}

	return &UsersPostgresRepository{db: db}
}

// UpsertOnLogin stores user if its email is unknown. For a known email only last_logged_in
// is updated, so role and creation time always survive a login.
func (r *UsersPostgresRepository) UpsertOnLogin(ctx context.Context, user entity.User) (entity.User, bool, error) {
	var row struct {
		entity.User
		Inserted bool `db:"inserted"`
	}

	err := r.db.GetContext(ctx, &row, `
		INSERT INTO
			users (`+userColumns+`)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET
			last_logged_in = EXCLUDED.last_logged_in
		RETURNING `+userColumns+`, (xmax = 0) AS inserted
	`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Role,
		user.IsFraud,
		user.CreatedAt,
		user.LastLoggedIn,
	)
	if err != nil {
		return entity.User{}, false, storeError(fmt.Errorf("could not upsert user %s: %w", user.Email, err))
	}

	return row.User, row.Inserted, nil
}

func (r *UsersPostgresRepository) FindByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.getBy(ctx, r.db, "email", entity.NormalizeEmail(email), false)
}

func (r *UsersPostgresRepository) Get(ctx context.Context, userID string) (entity.User, error) {
	return r.getBy(ctx, r.db, "user_id", userID, false)
}

func (r *UsersPostgresRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list users: %w", err))
	}

	return users, nil
}

func (r *UsersPostgresRepository) UpdateRole(ctx context.Context, userID string, role entity.Role) (entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET role = $2 WHERE user_id = $1
		RETURNING `+userColumns,
		userID, role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, fmt.Errorf("%w: user %s", entity.ErrNotFound, userID)
	}
	if err != nil {
		return entity.User{}, storeError(fmt.Errorf("could not update role of user %s: %w", userID, err))
	}

	return user, nil
}

// MarkFraud flags a vendor as fraud and publishes VendorMarkedFraud_v1, which hides
// the vendor's tickets. Flagging an already flagged vendor changes nothing.
func (r *UsersPostgresRepository) MarkFraud(ctx context.Context, userID string) (entity.User, error) {
	var user entity.User

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		user, err = r.getBy(ctx, tx, "user_id", userID, true)
		if err != nil {
			return err
		}

		if !user.HasRole(entity.RoleVendor) {
			return entity.ErrNotAVendor
		}
		if user.IsFraud {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET is_fraud = TRUE WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("could not mark user %s as fraud: %w", userID, err)
		}
		user.IsFraud = true

		return publishInTx(ctx, tx, entity.VendorMarkedFraud_v1{
			Header:      entity.NewEventHeader(),
			VendorEmail: user.Email,
		})
	})
	if err != nil {
		return entity.User{}, storeError(err)
	}

	return user, nil
}

func (r *UsersPostgresRepository) getBy(ctx context.Context, q sqlx.QueryerContext, column, value string, forUpdate bool) (entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var user entity.User
	err := sqlx.GetContext(ctx, q, &user, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, fmt.Errorf("%w: user with %s %s", entity.ErrNotFound, column, value)
	}
	if err != nil {
		return entity.User{}, storeError(fmt.Errorf("could not get user by %s: %w", column, err))
	}

	return user, nil
}
