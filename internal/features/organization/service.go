package organization

import (
	"context"
	"fmt"
	"time"

	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrganizationService answers "who belongs to this zone" for the workflow
// engine. Zone filters reference employee property fields, so membership is
// always computed fresh against the employee registry.
type OrganizationService interface {
	CreateEmployee(ctx context.Context, emp *Employee) error
	GetEmployee(ctx context.Context, tenantID primitive.ObjectID, employeeID string) (*Employee, error)
	ListEmployees(ctx context.Context, tenantID primitive.ObjectID) ([]Employee, error)
	ResolveZoneMembership(ctx context.Context, tenantID primitive.ObjectID, filter *condition.FilterGroup) ([]string, error)
}

type OrganizationServiceImpl struct {
	Repo EmployeeRepository
}

func NewOrganizationService(repo EmployeeRepository) OrganizationService {
	return &OrganizationServiceImpl{Repo: repo}
}

func (s *OrganizationServiceImpl) CreateEmployee(ctx context.Context, emp *Employee) error {
	if emp.EmployeeID == "" {
		return fmt.Errorf("employee_id is required")
	}
	if emp.ID.IsZero() {
		emp.ID = primitive.NewObjectID()
	}
	emp.Active = true
	emp.CreatedAt = time.Now()
	emp.UpdatedAt = time.Now()
	return s.Repo.Create(ctx, emp)
}

func (s *OrganizationServiceImpl) GetEmployee(ctx context.Context, tenantID primitive.ObjectID, employeeID string) (*Employee, error) {
	return s.Repo.FindByEmployeeID(ctx, tenantID, employeeID)
}

func (s *OrganizationServiceImpl) ListEmployees(ctx context.Context, tenantID primitive.ObjectID) ([]Employee, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *OrganizationServiceImpl) ResolveZoneMembership(ctx context.Context, tenantID primitive.ObjectID, filter *condition.FilterGroup) ([]string, error) {
	employees, err := s.Repo.FindMatching(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.EmployeeID)
	}
	return ids, nil
}
