package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"
	"github.com/kienquocIT/mis-api-sub003/internal/features/document"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventPublisher fans a committed advance out to connected listeners.
type EventPublisher interface {
	PublishAdvance(event AdvanceEvent)
}

// ArchiveSink receives terminal outcomes for the external warehouse. Calls
// are best effort and never block the advance path.
type ArchiveSink interface {
	ArchiveTerminal(ctx context.Context, event AdvanceEvent)
}

type EngineService interface {
	Advance(ctx context.Context, documentID string, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, error)
}

type EngineServiceImpl struct {
	DocRepo      document.DocumentRepository
	WorkflowRepo workflow.WorkflowRepository
	Repo         EngineRepository
	Resolver     *CollaboratorResolver
	Quorum       *QuorumTracker
	Planner      *TransitionPlanner
	AuditService audit.AuditService
	Events       EventPublisher
	Archive      ArchiveSink
	Logger       *zap.Logger
	MaxRetries   int
}

func NewEngineService(
	docRepo document.DocumentRepository,
	workflowRepo workflow.WorkflowRepository,
	repo EngineRepository,
	resolver *CollaboratorResolver,
	quorum *QuorumTracker,
	planner *TransitionPlanner,
	auditService audit.AuditService,
	events EventPublisher,
	archive ArchiveSink,
	logger *zap.Logger,
	cfg *config.Config,
) EngineService {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}
	return &EngineServiceImpl{
		DocRepo:      docRepo,
		WorkflowRepo: workflowRepo,
		Repo:         repo,
		Resolver:     resolver,
		Quorum:       quorum,
		Planner:      planner,
		AuditService: auditService,
		Events:       events,
		Archive:      archive,
		Logger:       logger,
		MaxRetries:   retries,
	}
}

// Advance runs one actor's action against a document. Each attempt executes
// inside a transaction conditioned on the document's revision counter; a
// stale revision aborts the attempt and the whole thing is retried against a
// fresh read, up to MaxRetries times.
func (s *EngineServiceImpl) Advance(ctx context.Context, documentID string, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, error) {
	docID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	if !validAction(action) {
		return nil, fmt.Errorf("unknown action %q", action)
	}

	var result *common_models.AdvanceResult
	var event *AdvanceEvent

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		result, event, err = s.attempt(ctx, docID, actor, action)
		if errors.Is(err, document.ErrStaleRevision) {
			s.Logger.Debug("advance attempt lost the revision race, retrying",
				zap.String("document_id", documentID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		break
	}
	if errors.Is(err, document.ErrStaleRevision) {
		return nil, ErrConcurrentModification
	}
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	return result, nil
}

func (s *EngineServiceImpl) attempt(ctx context.Context, docID primitive.ObjectID, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, *AdvanceEvent, error) {
	doc, err := s.DocRepo.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, fmt.Errorf("document %s not found", docID.Hex())
	}
	if closed(doc.SystemStatus) {
		return nil, nil, ErrDocumentClosed
	}

	if doc.Workflow == nil {
		if err := s.enterWorkflow(ctx, doc); err != nil {
			return nil, nil, err
		}
		doc, err = s.DocRepo.Get(ctx, docID)
		if err != nil {
			return nil, nil, err
		}
	}

	wf, err := s.WorkflowRepo.GetByID(ctx, doc.Workflow.WorkflowID.Hex())
	if err != nil {
		return nil, nil, err
	}
	if wf == nil {
		return nil, nil, fmt.Errorf("workflow %s referenced by document %s not found", doc.Workflow.WorkflowID.Hex(), docID.Hex())
	}
	node := wf.NodeByID(doc.Workflow.NodeID)
	if node == nil {
		return nil, nil, fmt.Errorf("node %s not found in workflow %s", doc.Workflow.NodeID, wf.ID.Hex())
	}
	if !node.AllowsAction(action) {
		return nil, nil, fmt.Errorf("action %q is not allowed at node %s", action, node.ID)
	}

	var result *common_models.AdvanceResult
	var event *AdvanceEvent

	err = s.Repo.WithTransaction(ctx, func(txCtx context.Context) error {
		result, event, err = s.step(txCtx, doc, wf, node, actor, action)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return result, event, nil
}

// step is one transactional advance: resolve, authorize, record, and either
// stay pending or move the document along a matching transition.
func (s *EngineServiceImpl) step(ctx context.Context, doc *document.Document, wf *workflow.Workflow, node *workflow.Node, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, *AdvanceEvent, error) {
	collaborators, err := s.Resolver.Resolve(ctx, wf, node, doc)
	if err != nil {
		return nil, nil, err
	}

	// The create action is driven by the document's author, who need not sit
	// in the resolved set. Anyone else must be a collaborator regardless of
	// the verb.
	if action == common_models.ActionCreate {
		if actor != doc.CreatedBy && !contains(collaborators, actor) {
			return nil, nil, ErrActorNotAuthorized
		}
	} else if !contains(collaborators, actor) {
		return nil, nil, ErrActorNotAuthorized
	}

	state, duplicate, err := s.Quorum.Record(ctx, doc.TenantID, doc.ID, node, actor, action)
	if err != nil {
		return nil, nil, err
	}
	if duplicate {
		return &common_models.AdvanceResult{
			Outcome:   common_models.OutcomePending,
			NodeID:    node.ID,
			Status:    doc.SystemStatus,
			Duplicate: true,
		}, nil, nil
	}

	rev := doc.Workflow.Rev

	if state == QuorumPending {
		if err := s.DocRepo.SetStatus(ctx, doc.ID, rev, common_models.StatusPending); err != nil {
			return nil, nil, err
		}
		result := &common_models.AdvanceResult{
			Outcome: common_models.OutcomePending,
			NodeID:  node.ID,
			Status:  common_models.StatusPending,
		}
		event := s.event(doc, wf, node.ID, actor, action, result)
		if err := s.appendTrail(ctx, event); err != nil {
			return nil, nil, err
		}
		return result, event, nil
	}

	target, err := s.Planner.Plan(wf, node, action, evalContext(doc, action))
	if err != nil {
		return nil, nil, err
	}

	status := common_models.StatusPending
	outcome := common_models.OutcomeAdvanced
	setDateApproved := false
	if target.Terminal() {
		status, outcome = terminalOf(target.SystemCode)
		setDateApproved = target.SystemCode == workflow.SystemComplete && doc.DateApproved == nil
	}

	if err := s.DocRepo.AdvanceNode(ctx, doc.ID, rev, target.ID, status, setDateApproved); err != nil {
		return nil, nil, err
	}
	if err := s.Repo.ClearNode(ctx, doc.ID, node.ID); err != nil {
		return nil, nil, err
	}

	result := &common_models.AdvanceResult{
		Outcome: outcome,
		NodeID:  target.ID,
		Status:  status,
	}
	event := s.event(doc, wf, target.ID, actor, action, result)
	if err := s.appendTrail(ctx, event); err != nil {
		return nil, nil, err
	}
	return result, event, nil
}

// appendTrail writes the immutable action record inside the same transaction
// as the state change. A failure aborts the whole advance.
func (s *EngineServiceImpl) appendTrail(ctx context.Context, event *AdvanceEvent) error {
	return s.AuditService.LogAction(ctx, audit.ActionEntry{
		DocumentID: mustObjectID(event.DocumentID),
		WorkflowID: mustObjectID(event.WorkflowID),
		TenantID:   mustObjectID(event.TenantID),
		NodeID:     event.NodeID,
		Actor:      event.Actor,
		Action:     event.Action,
		Outcome:    event.Outcome,
		Timestamp:  event.Timestamp,
	})
}

// enterWorkflow binds a fresh document to the tenant's in-use workflow and
// parks it on the initial node.
func (s *EngineServiceImpl) enterWorkflow(ctx context.Context, doc *document.Document) error {
	wf, err := s.WorkflowRepo.GetInUse(ctx, doc.TenantID, doc.AppCode)
	if err != nil {
		return err
	}
	if wf == nil {
		return ErrNoWorkflowInUse
	}
	initial := wf.InitialNode()
	if initial == nil {
		return fmt.Errorf("workflow %s has no initial node", wf.ID.Hex())
	}
	return s.DocRepo.InitWorkflowState(ctx, doc.ID, document.RuntimeState{
		WorkflowID: wf.ID,
		NodeID:     initial.ID,
		Rev:        0,
	})
}

func (s *EngineServiceImpl) afterCommit(ctx context.Context, event *AdvanceEvent) {
	if event == nil {
		return
	}

	s.Logger.Info("document advanced",
		zap.String("document_id", event.DocumentID),
		zap.String("node_id", event.NodeID),
		zap.String("action", string(event.Action)),
		zap.String("outcome", string(event.Outcome)),
	)

	if s.Events != nil {
		s.Events.PublishAdvance(*event)
	}
	if s.Archive != nil && terminalOutcome(event.Outcome) {
		go s.Archive.ArchiveTerminal(context.Background(), *event)
	}
}

func (s *EngineServiceImpl) event(doc *document.Document, wf *workflow.Workflow, nodeID, actor string, action common_models.WorkflowAction, result *common_models.AdvanceResult) *AdvanceEvent {
	return &AdvanceEvent{
		DocumentID: doc.ID.Hex(),
		AppCode:    doc.AppCode,
		TenantID:   doc.TenantID.Hex(),
		WorkflowID: wf.ID.Hex(),
		NodeID:     nodeID,
		Actor:      actor,
		Action:     action,
		Outcome:    result.Outcome,
		Status:     result.Status,
		Timestamp:  time.Now(),
	}
}

// evalContext exposes document fields to transition guards, both nested and
// under their dotted paths, plus the triggering action.
func evalContext(doc *document.Document, action common_models.WorkflowAction) map[string]interface{} {
	ctx := make(map[string]interface{}, len(doc.Data)+2)
	flattenInto(ctx, "", doc.Data)
	ctx["action"] = string(action)
	ctx["system_status"] = int(doc.SystemStatus)
	return ctx
}

func flattenInto(out map[string]interface{}, prefix string, value interface{}) {
	m, ok := asMapValue(value)
	if !ok {
		if prefix != "" {
			out[prefix] = value
		}
		return
	}
	if prefix != "" {
		out[prefix] = m
	}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenInto(out, key, v)
	}
}

func asMapValue(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case primitive.M:
		return map[string]interface{}(m), true
	case primitive.D:
		out := make(map[string]interface{}, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}

func terminalOf(code workflow.SystemCode) (common_models.SystemStatus, common_models.AdvanceOutcome) {
	switch code {
	case workflow.SystemRejected:
		return common_models.StatusRejected, common_models.OutcomeRejected
	case workflow.SystemReturned:
		return common_models.StatusReturned, common_models.OutcomeReturned
	case workflow.SystemCancelled:
		return common_models.StatusCancelled, common_models.OutcomeCancel
	default:
		return common_models.StatusFinished, common_models.OutcomeFinished
	}
}

func terminalOutcome(outcome common_models.AdvanceOutcome) bool {
	switch outcome {
	case common_models.OutcomeFinished, common_models.OutcomeRejected,
		common_models.OutcomeReturned, common_models.OutcomeCancel:
		return true
	}
	return false
}

func closed(status common_models.SystemStatus) bool {
	switch status {
	case common_models.StatusFinished, common_models.StatusCancelled,
		common_models.StatusRejected, common_models.StatusReturned:
		return true
	}
	return false
}

func validAction(action common_models.WorkflowAction) bool {
	for _, a := range common_models.ValidActions {
		if a == action {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func mustObjectID(hex string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
