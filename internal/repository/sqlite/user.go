package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewUserRepository(db *database.SQLiteDB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const authUserSelect = `SELECT auth_user_id, username, password_hash, role, is_active FROM auth_users`

func (r *userRepositoryImpl) GetByUsername(ctx context.Context, username string) (user.AuthUser, error) {
	return r.getOne(ctx, authUserSelect+` WHERE username = ?`, username)
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, id int64) (user.AuthUser, error) {
	return r.getOne(ctx, authUserSelect+` WHERE auth_user_id = ?`, id)
}

func (r *userRepositoryImpl) getOne(ctx context.Context, query string, arg any) (user.AuthUser, error) {
	var (
		u    user.AuthUser
		role string
	)
	err := getQuerier(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.AuthUser{}, user.ErrUserNotFound
		}
		return user.AuthUser{}, fmt.Errorf("failed to get auth user: %w", err)
	}
	u.Role = user.ParseRole(role)
	return u, nil
}

func (r *userRepositoryImpl) GetDepartmentIDs(ctx context.Context, userID int64) ([]int, error) {
	rows, err := getQuerier(ctx, r.db).QueryContext(ctx,
		`SELECT dept_id FROM auth_user_departments WHERE auth_user_id = ? ORDER BY dept_id`, userID)
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

func (r *userRepositoryImpl) Create(ctx context.Context, u user.AuthUser, departmentIDs []int) (int64, error) {
	var id int64
	err := NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		q := getQuerier(ctx, r.db)
		res, err := q.ExecContext(ctx,
			`INSERT INTO auth_users (username, password_hash, role, is_active) VALUES (?, ?, ?, ?)`,
			u.Username, u.PasswordHash, string(u.Role), u.IsActive)
		if err != nil {
			return fmt.Errorf("failed to insert auth user: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, dept := range departmentIDs {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO auth_user_departments (auth_user_id, dept_id) VALUES (?, ?)`, id, dept); err != nil {
				return fmt.Errorf("failed to grant department %d: %w", dept, err)
			}
		}
		return nil
	})
	return id, err
}
