package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const authUserSelect = `
	SELECT auth_user_id, username, password_hash, role, is_active
	FROM auth_users
`

// GetByUsername implements user.UserRepository.
func (r *userRepositoryImpl) GetByUsername(ctx context.Context, username string) (user.AuthUser, error) {
	return r.getOne(ctx, authUserSelect+` WHERE username = $1`, username)
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id int64) (user.AuthUser, error) {
	return r.getOne(ctx, authUserSelect+` WHERE auth_user_id = $1`, id)
}

func (r *userRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (user.AuthUser, error) {
	q := GetQuerier(ctx, r.db)

	var (
		u    user.AuthUser
		role string
	)
	err := q.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.AuthUser{}, user.ErrUserNotFound
		}
		return user.AuthUser{}, fmt.Errorf("failed to get auth user: %w", err)
	}
	u.Role = user.ParseRole(role)
	return u, nil
}

// GetDepartmentIDs implements user.UserRepository.
func (r *userRepositoryImpl) GetDepartmentIDs(ctx context.Context, userID int64) ([]int, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT dept_id FROM auth_user_departments WHERE auth_user_id = $1 ORDER BY dept_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department grants: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan department grant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, u user.AuthUser, departmentIDs []int) (int64, error) {
	var id int64
	err := NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		err := q.QueryRow(ctx, `
			INSERT INTO auth_users (username, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4)
			RETURNING auth_user_id`,
			u.Username, u.PasswordHash, string(u.Role), u.IsActive,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert auth user: %w", err)
		}

		for _, dept := range departmentIDs {
			if _, err := q.Exec(ctx, `INSERT INTO auth_user_departments (auth_user_id, dept_id) VALUES ($1, $2)`, id, dept); err != nil {
				return fmt.Errorf("failed to grant department %d: %w", dept, err)
			}
		}
		return nil
	})
	return id, err
}
