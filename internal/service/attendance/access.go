package attendance

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/validator"
)

// ResolveScope turns a department selector into a scope the principal may
// read. 0 selects every primary department the principal can see.
func ResolveScope(p user.Principal, registry *datasource.Registry, departmentID int) (Scope, error) {
	switch {
	case departmentID == datasource.AlternateDepartmentID:
		if !p.CanAccessDepartment(departmentID) {
			return Scope{}, attendance.ErrUnauthorizedScope
		}
		if !registry.HasAlternate() {
			return Scope{}, datasource.ErrSourceNotConfigured
		}
		return Scope{Source: datasource.Alternate, All: true}, nil

	case departmentID == 0:
		if p.IsAdmin() {
			return Scope{Source: datasource.Primary, All: true}, nil
		}
		ids := slices.DeleteFunc(slices.Clone(p.DepartmentIDs), func(id int) bool {
			return id == datasource.AlternateDepartmentID
		})
		return Scope{Source: datasource.Primary, DepartmentIDs: ids}, nil

	case departmentID > 0:
		if !p.CanAccessDepartment(departmentID) {
			return Scope{}, attendance.ErrUnauthorizedScope
		}
		return Scope{Source: datasource.Primary, DepartmentIDs: []int{departmentID}}, nil
	}

	return Scope{}, validator.ValidationErrors{{
		Field:   "dept_id",
		Message: "dept_id must be 0, a department id or the alternate tenant id",
	}}
}

// DayTarget is an authorized employee-day together with its store.
type DayTarget struct {
	Store     datasource.Store
	Source    datasource.Source
	Employee  employee.Employee
	Principal user.Principal
}

// AuthorizeDay loads the employee of a validated day request and checks that
// the caller may access their department.
func AuthorizeDay(ctx context.Context, registry *datasource.Registry, req attendance.DayRequest) (DayTarget, error) {
	p, err := user.PrincipalFromContext(ctx)
	if err != nil {
		return DayTarget{}, err
	}

	src, err := datasource.ParseSource(req.DataSource)
	if err != nil {
		return DayTarget{}, err
	}
	store, err := registry.Get(src)
	if err != nil {
		return DayTarget{}, err
	}

	emp, err := store.Employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return DayTarget{}, employee.ErrEmployeeNotFound
		}
		return DayTarget{}, fmt.Errorf("failed to get employee: %w", err)
	}

	dept := emp.DepartmentID
	if src == datasource.Alternate {
		dept = datasource.AlternateDepartmentID
	}
	if !p.CanAccessDepartment(dept) {
		return DayTarget{}, attendance.ErrUnauthorizedScope
	}

	return DayTarget{Store: store, Source: src, Employee: emp, Principal: p}, nil
}
