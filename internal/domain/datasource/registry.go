package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-control/internal/domain/schedule"
)

// Source names a separately connected store.
type Source string

const (
	Primary   Source = "primary"
	Alternate Source = "alternate"
)

// AlternateDepartmentID is the sentinel department that selects the
// alternate tenant. It never exists as a row in either store.
const AlternateDepartmentID = -10

var ErrSourceNotConfigured = errors.New("data source is not configured")

// ParseSource maps the wire name to a Source. Empty means Primary.
func ParseSource(s string) (Source, error) {
	switch s {
	case "", string(Primary):
		return Primary, nil
	case string(Alternate):
		return Alternate, nil
	}
	return "", fmt.Errorf("%w: %q", attendance.ErrUnknownDataSource, s)
}

// ForDepartment returns the source holding a department's data.
func ForDepartment(departmentID int) Source {
	if departmentID == AlternateDepartmentID {
		return Alternate
	}
	return Primary
}

// Transactor runs fn inside one store transaction. Repository calls made with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one connected database.
type Store struct {
	Punches     attendance.PunchRepository
	Assignments schedule.AssignmentRepository
	Employees   employee.EmployeeRepository
	Tx          Transactor
}

// Registry resolves a Source to its Store.
type Registry struct {
	stores map[Source]Store
}

func NewRegistry(primary Store) *Registry {
	return &Registry{stores: map[Source]Store{Primary: primary}}
}

// WithAlternate registers the alternate tenant store.
func (r *Registry) WithAlternate(s Store) *Registry {
	r.stores[Alternate] = s
	return r
}

func (r *Registry) Get(src Source) (Store, error) {
	s, ok := r.stores[src]
	if !ok {
		return Store{}, fmt.Errorf("%w: %s", ErrSourceNotConfigured, src)
	}
	return s, nil
}

// HasAlternate reports whether an alternate tenant is connected.
func (r *Registry) HasAlternate() bool {
	_, ok := r.stores[Alternate]
	return ok
}
