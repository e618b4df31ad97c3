package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*entity.UserProfile, error) {
	query := `SELECT uid, display_name, email, updated_at FROM users WHERE uid = ?`

	var email sql.NullString
	user := &entity.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, uid).Scan(&user.UID, &user.DisplayName, &email, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.Email = stringPtrFromNull(email)
	return user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *entity.UserProfile) error {
	query := `
		INSERT INTO users (uid, display_name, email, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			display_name = VALUES(display_name),
			email = VALUES(email),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query, user.UID, user.DisplayName, nullableStringValue(user.Email), user.UpdatedAt)
	return err
}
