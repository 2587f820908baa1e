package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT u.userid, u.name, COALESCE(u.user_code, ''), u.dept_id, COALESCE(d.dept_name, '')
	FROM userinfo u
	LEFT JOIN dept d ON d.dept_id = u.dept_id
`

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	var emp employee.Employee
	err := q.QueryRow(ctx, employeeSelect+` WHERE u.userid = $1`, id).Scan(
		&emp.ID, &emp.Name, &emp.Code, &emp.DepartmentID, &emp.DepartmentName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return emp, nil
}

// ListByDepartment implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListByDepartment(ctx context.Context, departmentID int) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, employeeSelect+` WHERE u.dept_id = $1 ORDER BY u.name, u.userid`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of department %d: %w", departmentID, err)
	}
	return scanEmployees(rows)
}

// ListAll implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListAll(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, employeeSelect+` ORDER BY u.name, u.userid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return scanEmployees(rows)
}

// ListDepartments implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListDepartments(ctx context.Context) ([]employee.Department, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `SELECT dept_id, dept_name FROM dept ORDER BY dept_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return scanDepartments(rows)
}

// ListDepartmentsByIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListDepartmentsByIDs(ctx context.Context, ids []int) ([]employee.Department, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `SELECT dept_id, dept_name FROM dept WHERE dept_id = ANY($1) ORDER BY dept_name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return scanDepartments(rows)
}

func scanEmployees(rows pgx.Rows) ([]employee.Employee, error) {
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

func scanDepartments(rows pgx.Rows) ([]employee.Department, error) {
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
