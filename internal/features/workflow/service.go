package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"
	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkflowService interface {
	CreateWorkflow(ctx context.Context, wf Workflow) error
	GetWorkflowByID(ctx context.Context, id string) (*Workflow, error)
	GetInUseWorkflow(ctx context.Context, tenantID primitive.ObjectID, appCode string) (*Workflow, error)
	ListWorkflows(ctx context.Context, tenantID primitive.ObjectID) ([]Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, wf Workflow) error

	// ActivateWorkflow validates the graph and marks the workflow in-use,
	// clearing the marker from any sibling of the same tenant+application.
	ActivateWorkflow(ctx context.Context, id string) error
	DisableWorkflow(ctx context.Context, id string) error
	DeleteWorkflow(ctx context.Context, id string) error
}

type WorkflowServiceImpl struct {
	Repo         WorkflowRepository
	AuditService audit.AuditService
}

func NewWorkflowService(repo WorkflowRepository, auditService audit.AuditService) WorkflowService {
	return &WorkflowServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *WorkflowServiceImpl) CreateWorkflow(ctx context.Context, wf Workflow) error {
	if err := ValidateGraph(&wf); err != nil {
		return err
	}

	if wf.ID.IsZero() {
		wf.ID = primitive.NewObjectID()
	}
	// New workflows never start in use; activation is a separate step.
	wf.InUse = false
	wf.CreatedAt = time.Now()
	wf.UpdatedAt = time.Now()

	return s.Repo.Create(ctx, wf)
}

func (s *WorkflowServiceImpl) UpdateWorkflow(ctx context.Context, id string, wf Workflow) error {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("workflow not found")
	}
	if existing.InUse && existing.Active {
		return errors.New("an in-use workflow cannot be edited; disable it or create a new version")
	}

	if err := ValidateGraph(&wf); err != nil {
		return err
	}

	return s.Repo.Update(ctx, id, wf)
}

func (s *WorkflowServiceImpl) ActivateWorkflow(ctx context.Context, id string) error {
	wf, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wf == nil {
		return errors.New("workflow not found")
	}

	if err := ValidateGraph(wf); err != nil {
		return err
	}

	if err := s.Repo.SetInUse(ctx, wf.TenantID, wf.AppCode, wf.ID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionActivate, wf.AppCode, wf.ID.Hex(), map[string]common_models.Change{
		"in_use": {Old: false, New: true},
	})
	return nil
}

func (s *WorkflowServiceImpl) DisableWorkflow(ctx context.Context, id string) error {
	return s.Repo.Disable(ctx, id)
}

func (s *WorkflowServiceImpl) DeleteWorkflow(ctx context.Context, id string) error {
	wf, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wf == nil {
		return nil
	}

	refs, err := s.Repo.CountReferencing(ctx, wf.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("workflow %s is referenced by %d documents; disable it instead", id, refs)
	}

	return s.Repo.Delete(ctx, id)
}

func (s *WorkflowServiceImpl) GetWorkflowByID(ctx context.Context, id string) (*Workflow, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *WorkflowServiceImpl) GetInUseWorkflow(ctx context.Context, tenantID primitive.ObjectID, appCode string) (*Workflow, error) {
	return s.Repo.GetInUse(ctx, tenantID, appCode)
}

func (s *WorkflowServiceImpl) ListWorkflows(ctx context.Context, tenantID primitive.ObjectID) ([]Workflow, error) {
	return s.Repo.List(ctx, tenantID)
}

// ValidateGraph rejects graphs that could strand a document: a missing or
// duplicated initial node, a non-terminal node with no way out, dangling
// association endpoints, malformed condition trees, or a condition table with
// more than one else row.
func ValidateGraph(wf *Workflow) error {
	if len(wf.Nodes) == 0 {
		return errors.New("workflow has no nodes")
	}

	seen := make(map[string]bool, len(wf.Nodes))
	initialCount := 0
	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if n.ID == "" {
			return fmt.Errorf("node at position %d has no id", n.Position)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true

		if n.IsSystem && n.SystemCode == SystemInitial {
			initialCount++
		}

		for _, a := range n.Actions {
			if !validAction(a) {
				return fmt.Errorf("node %q: unknown action %q", n.ID, a)
			}
		}

		elseCount := 0
		for _, rule := range n.ConditionTable {
			if rule.Else {
				elseCount++
				continue
			}
			if rule.MinCollaborator < 1 {
				return fmt.Errorf("node %q: min_collaborator for action %q must be positive", n.ID, rule.Action)
			}
		}
		if elseCount > 1 {
			return fmt.Errorf("node %q: condition table has more than one else row", n.ID)
		}

		switch n.Source.Mode {
		case SourceFromField:
			if n.Source.FieldPath == "" {
				return fmt.Errorf("node %q: from-field source requires a field path", n.ID)
			}
		case SourceExplicit:
			if len(n.Source.Employees) == 0 {
				return fmt.Errorf("node %q: explicit source requires at least one employee", n.ID)
			}
		case SourceZone:
			for _, zid := range n.Source.ZoneIDs {
				if wf.ZoneByID(zid) == nil {
					return fmt.Errorf("node %q: unknown zone %q", n.ID, zid)
				}
			}
			if len(n.Source.ZoneIDs) == 0 {
				return fmt.Errorf("node %q: zone source requires at least one zone", n.ID)
			}
		default:
			return fmt.Errorf("node %q: unknown collaborator source mode %q", n.ID, n.Source.Mode)
		}
	}

	if initialCount != 1 {
		return fmt.Errorf("workflow must have exactly one initial node, found %d", initialCount)
	}

	for _, a := range wf.Associations {
		if !seen[a.NodeIn] {
			return fmt.Errorf("association %q: node_in %q does not exist", a.ID, a.NodeIn)
		}
		if !seen[a.NodeOut] {
			return fmt.Errorf("association %q: node_out %q does not exist", a.ID, a.NodeOut)
		}
		if _, err := condition.Parse(a.Condition); err != nil {
			return fmt.Errorf("association %q: %w", a.ID, err)
		}
	}

	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if n.Terminal() {
			continue
		}
		if len(wf.Outgoing(n.ID)) == 0 {
			return fmt.Errorf("node %q is not terminal and has no outgoing association", n.ID)
		}
	}

	return nil
}

func validAction(a common_models.WorkflowAction) bool {
	for _, v := range common_models.ValidActions {
		if a == v {
			return true
		}
	}
	return false
}
