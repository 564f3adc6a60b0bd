package engine

import (
	"context"

	"github.com/kienquocIT/mis-api-sub003/internal/features/document"
	"github.com/kienquocIT/mis-api-sub003/internal/features/organization"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CollaboratorResolver turns a node's collaborator source into concrete
// employee IDs and pins the set to the (document, node) pair. The first
// resolution wins: later calls for the same visit return the pinned set even
// if the document field or zone membership changed in the meantime.
type CollaboratorResolver struct {
	Repo   EngineRepository
	Org    organization.OrganizationService
	Logger *zap.Logger
}

func NewCollaboratorResolver(repo EngineRepository, org organization.OrganizationService, logger *zap.Logger) *CollaboratorResolver {
	return &CollaboratorResolver{Repo: repo, Org: org, Logger: logger}
}

func (r *CollaboratorResolver) Resolve(ctx context.Context, wf *workflow.Workflow, node *workflow.Node, doc *document.Document) ([]string, error) {
	pinned, err := r.Repo.ListCollaborators(ctx, doc.ID, node.ID)
	if err != nil {
		return nil, err
	}
	if len(pinned) > 0 {
		ids := make([]string, 0, len(pinned))
		for _, c := range pinned {
			ids = append(ids, c.EmployeeID)
		}
		return ids, nil
	}

	var ids []string
	switch node.Source.Mode {
	case workflow.SourceFromField:
		ids, err = r.fromField(node, doc)
	case workflow.SourceExplicit:
		ids = dedupe(node.Source.Employees)
	case workflow.SourceZone:
		ids, err = r.fromZones(ctx, wf, node, doc.TenantID)
	default:
		return nil, &ResolutionError{
			WorkflowID: wf.ID.Hex(),
			NodeID:     node.ID,
			Reason:     "unknown collaborator source mode " + string(node.Source.Mode),
		}
	}
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &ResolutionError{
			WorkflowID: wf.ID.Hex(),
			NodeID:     node.ID,
			Reason:     "source produced no collaborators",
		}
	}

	collaborators := make([]Collaborator, 0, len(ids))
	for _, id := range ids {
		collaborators = append(collaborators, Collaborator{
			TenantID:   doc.TenantID,
			DocumentID: doc.ID,
			NodeID:     node.ID,
			EmployeeID: id,
		})
	}
	if err := r.Repo.SaveCollaborators(ctx, collaborators); err != nil {
		return nil, err
	}

	r.Logger.Debug("collaborators resolved",
		zap.String("document_id", doc.ID.Hex()),
		zap.String("node_id", node.ID),
		zap.Int("count", len(ids)),
	)
	return ids, nil
}

func (r *CollaboratorResolver) fromField(node *workflow.Node, doc *document.Document) ([]string, error) {
	value, ok := doc.Field(node.Source.FieldPath)
	if !ok {
		return nil, &ResolutionError{
			WorkflowID: doc.Workflow.WorkflowID.Hex(),
			NodeID:     node.ID,
			Reason:     "document field " + node.Source.FieldPath + " is missing",
		}
	}

	var ids []string
	switch v := value.(type) {
	case string:
		if v != "" {
			ids = []string{v}
		}
	case []string:
		ids = v
	case []interface{}:
		ids = stringsOf(v)
	case primitive.A:
		ids = stringsOf(v)
	}
	return dedupe(ids), nil
}

func (r *CollaboratorResolver) fromZones(ctx context.Context, wf *workflow.Workflow, node *workflow.Node, tenantID primitive.ObjectID) ([]string, error) {
	var union []string
	for _, zoneID := range node.Source.ZoneIDs {
		zone := wf.ZoneByID(zoneID)
		if zone == nil {
			return nil, &ResolutionError{
				WorkflowID: wf.ID.Hex(),
				NodeID:     node.ID,
				Reason:     "zone " + zoneID + " is not defined on the workflow",
			}
		}
		members, err := r.Org.ResolveZoneMembership(ctx, tenantID, zone.Properties)
		if err != nil {
			return nil, err
		}
		union = append(union, members...)
	}
	return dedupe(union), nil
}

func stringsOf(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
