package department

import (
	"context"

	"muni-hris/internal/employee"
	"muni-hris/internal/rbac"

	"go.uber.org/zap"
)

// ScopeService resolves which departments an actor may see leave data for.
// A nil slice means unrestricted; an empty slice means own records only.
type ScopeService interface {
	VisibleDepartmentIDs(ctx context.Context, actorID string) ([]string, error)
}

type scopeService struct {
	departments Repository
	employees   employee.Repository
	rbacService rbac.Service
	logger      *zap.Logger
}

func NewScopeService(
	departments Repository,
	employees employee.Repository,
	rbacService rbac.Service,
	logger ...*zap.Logger,
) ScopeService {
	l := zap.L().Named("department.scope")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.scope")
	}
	return &scopeService{
		departments: departments,
		employees:   employees,
		rbacService: rbacService,
		logger:      l,
	}
}

func (s *scopeService) VisibleDepartmentIDs(ctx context.Context, actorID string) ([]string, error) {
	unrestricted, err := s.rbacService.Enforce(rbac.EnforceRequest{
		EmployeeID: actorID,
		Resource:   "leave",
		Action:     "manage",
	})
	if err != nil {
		return nil, err
	}
	if unrestricted {
		return nil, nil
	}

	actor, err := s.employees.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.DepartmentID == nil {
		return []string{}, nil
	}

	ids, err := s.departments.SubtreeIDs(ctx, actor.DepartmentID.String())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("visible departments resolved",
		zap.String("actor_id", actorID),
		zap.Int("departments", len(ids)),
	)
	return ids, nil
}
