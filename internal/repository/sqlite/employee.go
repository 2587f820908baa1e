package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewEmployeeRepository(db *database.SQLiteDB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT u.userid, u.name, COALESCE(u.user_code, ''), u.dept_id, COALESCE(d.dept_name, '')
	FROM userinfo u
	LEFT JOIN dept d ON d.dept_id = u.dept_id
`

func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	var emp employee.Employee
	err := getQuerier(ctx, e.db).QueryRowContext(ctx, employeeSelect+` WHERE u.userid = ?`, id).Scan(
		&emp.ID, &emp.Name, &emp.Code, &emp.DepartmentID, &emp.DepartmentName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return emp, nil
}

func (e *employeeRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int) ([]employee.Employee, error) {
	rows, err := getQuerier(ctx, e.db).QueryContext(ctx, employeeSelect+` WHERE u.dept_id = ? ORDER BY u.name, u.userid`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of department %d: %w", departmentID, err)
	}
	return scanEmployees(rows)
}

func (e *employeeRepositoryImpl) ListAll(ctx context.Context) ([]employee.Employee, error) {
	rows, err := getQuerier(ctx, e.db).QueryContext(ctx, employeeSelect+` ORDER BY u.name, u.userid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return scanEmployees(rows)
}

func (e *employeeRepositoryImpl) ListDepartments(ctx context.Context) ([]employee.Department, error) {
	rows, err := getQuerier(ctx, e.db).QueryContext(ctx, `SELECT dept_id, dept_name FROM dept ORDER BY dept_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return scanDepartments(rows)
}

func (e *employeeRepositoryImpl) ListDepartmentsByIDs(ctx context.Context, ids []int) ([]employee.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := getQuerier(ctx, e.db).QueryContext(ctx,
		`SELECT dept_id, dept_name FROM dept WHERE dept_id IN (`+placeholders+`) ORDER BY dept_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return scanDepartments(rows)
}

func scanEmployees(rows *sql.Rows) ([]employee.Employee, error) {
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		var emp employee.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Code, &emp.DepartmentID, &emp.DepartmentName); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func scanDepartments(rows *sql.Rows) ([]employee.Department, error) {
	defer rows.Close()

	var out []employee.Department
	for rows.Next() {
		var d employee.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
