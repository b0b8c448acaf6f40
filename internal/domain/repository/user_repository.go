package repository

import (
	"context"
	"errors"
	"fmt"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
)

type pgUserRepository struct {
	q querier
}

const userColumns = `id, email, first_name, last_name, password_hash, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, first_name, last_name, password_hash)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, user.Email, user.FirstName, user.LastName, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		err = classify("pgUserRepository.Create", err)
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("an account with this email already exists: %w", common.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, classify("pgUserRepository.FindByEmail", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("pgUserRepository.FindByID", err)
	}
	return user, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET first_name = $2, last_name = $3, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`
	if err := r.q.QueryRowContext(ctx, query, user.ID, user.FirstName, user.LastName).Scan(&user.UpdatedAt); err != nil {
		return classify("pgUserRepository.Update", err)
	}
	return nil
}

// Delete removes the user; owned goals, challenges, submissions and events cascade.
func (r *pgUserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, classify("pgUserRepository.Delete", err)
	}
	return rowsAffected("pgUserRepository.Delete", res)
}
