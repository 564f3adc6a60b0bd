package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"
	"github.com/kienquocIT/mis-api-sub003/internal/features/document"
	"github.com/kienquocIT/mis-api-sub003/internal/features/organization"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"
	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ---- in-memory fakes ----

type fakeDocRepo struct {
	docs map[primitive.ObjectID]*document.Document

	// failWrites makes the next N conditional writes lose the revision race.
	failWrites int
}

func newFakeDocRepo(docs ...*document.Document) *fakeDocRepo {
	r := &fakeDocRepo{docs: make(map[primitive.ObjectID]*document.Document)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *document.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) Get(ctx context.Context, id primitive.ObjectID) (*document.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	if d.Workflow != nil {
		state := *d.Workflow
		cp.Workflow = &state
	}
	return &cp, nil
}

func (r *fakeDocRepo) List(ctx context.Context, tenantID primitive.ObjectID, appCode string, limit, offset int64) ([]document.Document, error) {
	return nil, nil
}

func (r *fakeDocRepo) UpdateData(ctx context.Context, id primitive.ObjectID, data map[string]interface{}, updatedBy string) error {
	r.docs[id].Data = data
	return nil
}

func (r *fakeDocRepo) InitWorkflowState(ctx context.Context, id primitive.ObjectID, state document.RuntimeState) error {
	d := r.docs[id]
	if d.Workflow != nil {
		return document.ErrStaleRevision
	}
	d.Workflow = &state
	return nil
}

func (r *fakeDocRepo) SetStatus(ctx context.Context, id primitive.ObjectID, expectedRev int64, status common_models.SystemStatus) error {
	if r.failWrites > 0 {
		r.failWrites--
		return document.ErrStaleRevision
	}
	d := r.docs[id]
	if d.Workflow == nil || d.Workflow.Rev != expectedRev {
		return document.ErrStaleRevision
	}
	d.SystemStatus = status
	d.Workflow.Rev++
	return nil
}

func (r *fakeDocRepo) AdvanceNode(ctx context.Context, id primitive.ObjectID, expectedRev int64, nodeID string, status common_models.SystemStatus, setDateApproved bool) error {
	if r.failWrites > 0 {
		r.failWrites--
		return document.ErrStaleRevision
	}
	d := r.docs[id]
	if d.Workflow == nil || d.Workflow.Rev != expectedRev {
		return document.ErrStaleRevision
	}
	if setDateApproved {
		if d.DateApproved != nil {
			return document.ErrStaleRevision
		}
		now := time.Now()
		d.DateApproved = &now
	}
	d.Workflow.NodeID = nodeID
	d.SystemStatus = status
	d.Workflow.Rev++
	return nil
}

type fakeWorkflowRepo struct {
	wf *workflow.Workflow
}

func (r *fakeWorkflowRepo) Create(ctx context.Context, wf workflow.Workflow) error { return nil }

func (r *fakeWorkflowRepo) GetByID(ctx context.Context, id string) (*workflow.Workflow, error) {
	if r.wf != nil && r.wf.ID.Hex() == id {
		return r.wf, nil
	}
	return nil, nil
}

func (r *fakeWorkflowRepo) GetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string) (*workflow.Workflow, error) {
	if r.wf != nil && r.wf.InUse && r.wf.AppCode == appCode {
		return r.wf, nil
	}
	return nil, nil
}

func (r *fakeWorkflowRepo) List(ctx context.Context, tenantID primitive.ObjectID) ([]workflow.Workflow, error) {
	return nil, nil
}
func (r *fakeWorkflowRepo) Update(ctx context.Context, id string, wf workflow.Workflow) error {
	return nil
}
func (r *fakeWorkflowRepo) SetInUse(ctx context.Context, tenantID primitive.ObjectID, appCode string, id primitive.ObjectID) error {
	return nil
}
func (r *fakeWorkflowRepo) Disable(ctx context.Context, id string) error { return nil }
func (r *fakeWorkflowRepo) Delete(ctx context.Context, id string) error  { return nil }
func (r *fakeWorkflowRepo) CountReferencing(ctx context.Context, workflowID primitive.ObjectID) (int64, error) {
	return 0, nil
}

type fakeEngineRepo struct {
	collaborators []Collaborator
	actions       []ActionRecord

	// docs participates in the transaction snapshot so aborts roll the
	// document back too, like a real multi-collection session.
	docs *fakeDocRepo
}

func (r *fakeEngineRepo) ListCollaborators(ctx context.Context, documentID primitive.ObjectID, nodeID string) ([]Collaborator, error) {
	var out []Collaborator
	for _, c := range r.collaborators {
		if c.DocumentID == documentID && c.NodeID == nodeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeEngineRepo) SaveCollaborators(ctx context.Context, collaborators []Collaborator) error {
	r.collaborators = append(r.collaborators, collaborators...)
	return nil
}

func (r *fakeEngineRepo) HasAction(ctx context.Context, documentID primitive.ObjectID, nodeID, actor string, action string) (bool, error) {
	for _, a := range r.actions {
		if a.DocumentID == documentID && a.NodeID == nodeID && a.Actor == actor && string(a.Action) == action {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEngineRepo) InsertAction(ctx context.Context, record ActionRecord) error {
	r.actions = append(r.actions, record)
	return nil
}

func (r *fakeEngineRepo) CountDistinctActors(ctx context.Context, documentID primitive.ObjectID, nodeID string, action string) (int, error) {
	seen := make(map[string]bool)
	for _, a := range r.actions {
		if a.DocumentID == documentID && a.NodeID == nodeID && string(a.Action) == action {
			seen[a.Actor] = true
		}
	}
	return len(seen), nil
}

func (r *fakeEngineRepo) ClearNode(ctx context.Context, documentID primitive.ObjectID, nodeID string) error {
	var keptC []Collaborator
	for _, c := range r.collaborators {
		if !(c.DocumentID == documentID && c.NodeID == nodeID) {
			keptC = append(keptC, c)
		}
	}
	r.collaborators = keptC

	var keptA []ActionRecord
	for _, a := range r.actions {
		if !(a.DocumentID == documentID && a.NodeID == nodeID) {
			keptA = append(keptA, a)
		}
	}
	r.actions = keptA
	return nil
}

// WithTransaction mimics commit-or-abort by restoring the snapshot when fn
// fails.
func (r *fakeEngineRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapC := append([]Collaborator(nil), r.collaborators...)
	snapA := append([]ActionRecord(nil), r.actions...)
	var snapD map[primitive.ObjectID]*document.Document
	if r.docs != nil {
		snapD = make(map[primitive.ObjectID]*document.Document, len(r.docs.docs))
		for id, d := range r.docs.docs {
			cp := *d
			if d.Workflow != nil {
				state := *d.Workflow
				cp.Workflow = &state
			}
			if d.DateApproved != nil {
				at := *d.DateApproved
				cp.DateApproved = &at
			}
			snapD[id] = &cp
		}
	}
	if err := fn(ctx); err != nil {
		r.collaborators = snapC
		r.actions = snapA
		if r.docs != nil {
			r.docs.docs = snapD
		}
		return err
	}
	return nil
}

type fakeAuditService struct {
	entries  []audit.ActionEntry
	failWith error
}

func (s *fakeAuditService) LogChange(ctx context.Context, action common_models.AuditAction, appCode string, recordID string, changes map[string]common_models.Change) error {
	return nil
}
func (s *fakeAuditService) LogAction(ctx context.Context, entry audit.ActionEntry) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.entries = append(s.entries, entry)
	return nil
}
func (s *fakeAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}
func (s *fakeAuditService) DocumentTrail(ctx context.Context, documentID string) ([]audit.ActionEntry, error) {
	return s.entries, nil
}
func (s *fakeAuditService) ExportDocumentTrail(ctx context.Context, documentID string) ([]byte, string, error) {
	return nil, "", nil
}

type fakeOrgService struct {
	members []string
}

func (s *fakeOrgService) CreateEmployee(ctx context.Context, emp *organization.Employee) error {
	return nil
}
func (s *fakeOrgService) GetEmployee(ctx context.Context, tenantID primitive.ObjectID, employeeID string) (*organization.Employee, error) {
	return nil, nil
}
func (s *fakeOrgService) ListEmployees(ctx context.Context, tenantID primitive.ObjectID) ([]organization.Employee, error) {
	return nil, nil
}
func (s *fakeOrgService) ResolveZoneMembership(ctx context.Context, tenantID primitive.ObjectID, filter *condition.FilterGroup) ([]string, error) {
	return s.members, nil
}

type capturePublisher struct {
	events []AdvanceEvent
}

func (p *capturePublisher) PublishAdvance(event AdvanceEvent) {
	p.events = append(p.events, event)
}

// ---- fixtures ----

var testTenant = primitive.NewObjectID()

// saleOrderWorkflow models: start -> review -> {rejected | senior | done},
// senior -> done. Review routes rejects first, then large amounts to senior,
// and everything else straight to completion.
func saleOrderWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID:       primitive.NewObjectID(),
		TenantID: testTenant,
		AppCode:  "sale_order",
		Name:     "Sale order approval",
		Active:   true,
		InUse:    true,
		Nodes: []workflow.Node{
			{
				ID: "start", IsSystem: true, SystemCode: workflow.SystemInitial,
				Actions: []common_models.WorkflowAction{common_models.ActionCreate},
				Source:  workflow.CollaboratorSource{Mode: workflow.SourceFromField, FieldPath: "owner"},
			},
			{
				ID:      "review",
				Actions: []common_models.WorkflowAction{common_models.ActionApprove, common_models.ActionReject},
				Source:  workflow.CollaboratorSource{Mode: workflow.SourceExplicit, Employees: []string{"emp-1", "emp-2"}},
				ConditionTable: []workflow.ActionRule{
					{Action: common_models.ActionApprove, MinCollaborator: 1},
					{Else: true, MinCollaborator: 1},
				},
			},
			{
				ID:      "senior",
				Actions: []common_models.WorkflowAction{common_models.ActionApprove},
				Source:  workflow.CollaboratorSource{Mode: workflow.SourceExplicit, Employees: []string{"emp-boss"}},
			},
			{ID: "done", IsSystem: true, SystemCode: workflow.SystemComplete},
			{ID: "rejected", IsSystem: true, SystemCode: workflow.SystemRejected},
		},
		Associations: []workflow.Association{
			{ID: "a1", NodeIn: "start", NodeOut: "review"},
			{ID: "a2", NodeIn: "review", NodeOut: "rejected", Condition: map[string]interface{}{
				"left": "$action", "math": "is", "right": "reject",
			}},
			{ID: "a3", NodeIn: "review", NodeOut: "senior", Condition: map[string]interface{}{
				"left": "$amount", "math": ">=", "right": 1000, "type": "number",
			}},
			{ID: "a4", NodeIn: "review", NodeOut: "done"},
			{ID: "a5", NodeIn: "senior", NodeOut: "done"},
		},
	}
}

func newTestDocument(amount float64) *document.Document {
	return &document.Document{
		ID:           primitive.NewObjectID(),
		TenantID:     testTenant,
		AppCode:      "sale_order",
		SystemStatus: common_models.StatusDraft,
		CreatedBy:    "emp-0",
		Data: map[string]interface{}{
			"owner":  "emp-0",
			"amount": amount,
		},
	}
}

type testEngine struct {
	svc       *EngineServiceImpl
	docRepo   *fakeDocRepo
	repo      *fakeEngineRepo
	auditSvc  *fakeAuditService
	publisher *capturePublisher
}

func newTestEngine(wf *workflow.Workflow, docs ...*document.Document) *testEngine {
	logger := zap.NewNop()
	docRepo := newFakeDocRepo(docs...)
	repo := &fakeEngineRepo{docs: docRepo}
	auditSvc := &fakeAuditService{}
	publisher := &capturePublisher{}

	svc := &EngineServiceImpl{
		DocRepo:      docRepo,
		WorkflowRepo: &fakeWorkflowRepo{wf: wf},
		Repo:         repo,
		Resolver:     NewCollaboratorResolver(repo, &fakeOrgService{}, logger),
		Quorum:       NewQuorumTracker(repo),
		Planner:      NewTransitionPlanner(logger),
		AuditService: auditSvc,
		Events:       publisher,
		Logger:       logger,
		MaxRetries:   3,
	}
	return &testEngine{svc: svc, docRepo: docRepo, repo: repo, auditSvc: auditSvc, publisher: publisher}
}

// ---- tests ----

func TestAdvanceCreateEntersWorkflow(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)

	result, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "emp-0", common_models.ActionCreate)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	if result.Outcome != common_models.OutcomeAdvanced {
		t.Errorf("outcome = %q, want advanced", result.Outcome)
	}
	if result.NodeID != "review" {
		t.Errorf("node = %q, want review", result.NodeID)
	}
	if result.Status != common_models.StatusPending {
		t.Errorf("status = %v, want pending", result.Status)
	}

	stored := te.docRepo.docs[doc.ID]
	if stored.Workflow == nil || stored.Workflow.NodeID != "review" {
		t.Fatalf("document did not move to review: %+v", stored.Workflow)
	}
	if stored.Workflow.Rev != 1 {
		t.Errorf("rev = %d, want 1", stored.Workflow.Rev)
	}
	if len(te.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(te.publisher.events))
	}
	if len(te.auditSvc.entries) != 1 {
		t.Errorf("trail has %d entries, want 1", len(te.auditSvc.entries))
	}

	// The spent initial-node bookkeeping must be gone.
	if left, _ := te.repo.ListCollaborators(context.Background(), doc.ID, "start"); len(left) != 0 {
		t.Errorf("start node still has %d collaborators", len(left))
	}
}

func TestAdvanceRoutesFirstMatchingTransition(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		action     common_models.WorkflowAction
		actor      string
		wantNode   string
		wantStatus common_models.SystemStatus
	}{
		{
			name: "small amount completes", amount: 500,
			action: common_models.ActionApprove, actor: "emp-1",
			wantNode: "done", wantStatus: common_models.StatusFinished,
		},
		{
			name: "large amount escalates", amount: 2500,
			action: common_models.ActionApprove, actor: "emp-2",
			wantNode: "senior", wantStatus: common_models.StatusPending,
		},
		{
			name: "reject wins over amount routing", amount: 2500,
			action: common_models.ActionReject, actor: "emp-1",
			wantNode: "rejected", wantStatus: common_models.StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument(tt.amount)
			te := newTestEngine(saleOrderWorkflow(), doc)
			ctx := context.Background()

			if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
				t.Fatalf("create: %v", err)
			}

			result, err := te.svc.Advance(ctx, doc.ID.Hex(), tt.actor, tt.action)
			if err != nil {
				t.Fatalf("Advance() error = %v", err)
			}
			if result.NodeID != tt.wantNode {
				t.Errorf("node = %q, want %q", result.NodeID, tt.wantNode)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v", result.Status, tt.wantStatus)
			}
		})
	}
}

func TestAdvanceSetsDateApprovedExactlyOnce(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}
	result, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Outcome != common_models.OutcomeFinished {
		t.Fatalf("outcome = %q, want finished", result.Outcome)
	}

	stored := te.docRepo.docs[doc.ID]
	if stored.DateApproved == nil {
		t.Fatal("date_approved was not set on completion")
	}

	// A closed document takes no further actions.
	_, err = te.svc.Advance(ctx, doc.ID.Hex(), "emp-2", common_models.ActionApprove)
	if !errors.Is(err, ErrDocumentClosed) {
		t.Errorf("advance on closed document: error = %v, want ErrDocumentClosed", err)
	}
}

func TestAdvanceQuorum(t *testing.T) {
	wf := saleOrderWorkflow()
	wf.Nodes[1].ConditionTable = []workflow.ActionRule{
		{Action: common_models.ActionApprove, MinCollaborator: 2},
	}
	doc := newTestDocument(500)
	te := newTestEngine(wf, doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}

	// First approval is below the threshold of two.
	result, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if result.Outcome != common_models.OutcomePending {
		t.Fatalf("first approve outcome = %q, want pending", result.Outcome)
	}
	if result.NodeID != "review" {
		t.Errorf("document must stay on review, got %q", result.NodeID)
	}

	// The same actor repeating the action is a no-op.
	dup, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("duplicate approve: %v", err)
	}
	if !dup.Duplicate {
		t.Error("repeated action must be flagged as duplicate")
	}
	revBefore := te.docRepo.docs[doc.ID].Workflow.Rev

	// A second distinct actor satisfies the quorum.
	result, err = te.svc.Advance(ctx, doc.ID.Hex(), "emp-2", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if result.Outcome != common_models.OutcomeFinished {
		t.Errorf("second approve outcome = %q, want finished", result.Outcome)
	}
	if te.docRepo.docs[doc.ID].Workflow.Rev != revBefore+1 {
		t.Errorf("rev = %d, want %d", te.docRepo.docs[doc.ID].Workflow.Rev, revBefore+1)
	}
}

func TestAdvanceRejectsOutsiders(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := te.svc.Advance(ctx, doc.ID.Hex(), "stranger", common_models.ActionApprove)
	if !errors.Is(err, ErrActorNotAuthorized) {
		t.Errorf("error = %v, want ErrActorNotAuthorized", err)
	}
}

// Create is author-driven: the author may submit a draft whose initial-node
// collaborators do not include them, but nobody else can submit on their
// behalf.
func TestAdvanceCreateAuthorization(t *testing.T) {
	t.Run("stranger cannot submit another author's draft", func(t *testing.T) {
		doc := newTestDocument(500)
		te := newTestEngine(saleOrderWorkflow(), doc)

		_, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "total-stranger", common_models.ActionCreate)
		if !errors.Is(err, ErrActorNotAuthorized) {
			t.Fatalf("error = %v, want ErrActorNotAuthorized", err)
		}

		stored := te.docRepo.docs[doc.ID]
		if stored.SystemStatus != common_models.StatusDraft {
			t.Errorf("status = %v, want draft", stored.SystemStatus)
		}
		if len(te.publisher.events) != 0 {
			t.Errorf("published %d events, want 0", len(te.publisher.events))
		}
		if len(te.auditSvc.entries) != 0 {
			t.Errorf("trail has %d entries, want 0", len(te.auditSvc.entries))
		}
	})

	t.Run("author submits even outside the resolved set", func(t *testing.T) {
		doc := newTestDocument(500)
		doc.Data["owner"] = "emp-9"
		te := newTestEngine(saleOrderWorkflow(), doc)

		result, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "emp-0", common_models.ActionCreate)
		if err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
		if result.NodeID != "review" {
			t.Errorf("node = %q, want review", result.NodeID)
		}
	})
}

// The trail entry commits or aborts with the rest of the advance. A failing
// audit store must leave the document exactly where it was.
func TestAdvanceAuditFailureAbortsAdvance(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}
	revBefore := te.docRepo.docs[doc.ID].Workflow.Rev

	te.auditSvc.failWith = errors.New("audit store unavailable")
	_, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err == nil {
		t.Fatal("expected the advance to fail with the audit store down")
	}

	stored := te.docRepo.docs[doc.ID]
	if stored.Workflow.NodeID != "review" {
		t.Errorf("document moved to %q despite the aborted transaction", stored.Workflow.NodeID)
	}
	if stored.Workflow.Rev != revBefore {
		t.Errorf("rev = %d, want %d", stored.Workflow.Rev, revBefore)
	}
	if len(te.publisher.events) != 1 {
		t.Errorf("published %d events, want only the create", len(te.publisher.events))
	}

	// Nothing from the aborted attempt may linger: the same actor retries
	// cleanly once the store is back.
	te.auditSvc.failWith = nil
	result, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if result.Duplicate {
		t.Error("retry was flagged duplicate, aborted action record leaked")
	}
	if result.Outcome != common_models.OutcomeFinished {
		t.Errorf("outcome = %q, want finished", result.Outcome)
	}
}

func TestAdvanceResolutionFailure(t *testing.T) {
	doc := newTestDocument(500)
	delete(doc.Data, "owner")
	te := newTestEngine(saleOrderWorkflow(), doc)

	_, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "emp-0", common_models.ActionCreate)
	var resolution *ResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("error = %v, want *ResolutionError", err)
	}
}

func TestAdvanceNoMatchingTransition(t *testing.T) {
	wf := saleOrderWorkflow()
	// Strip review's catch-all so a small approve has nowhere to go.
	wf.Associations = []workflow.Association{
		{ID: "a1", NodeIn: "start", NodeOut: "review"},
		{ID: "a3", NodeIn: "review", NodeOut: "senior", Condition: map[string]interface{}{
			"left": "$amount", "math": ">=", "right": 1000, "type": "number",
		}},
		{ID: "a5", NodeIn: "senior", NodeOut: "done"},
	}
	doc := newTestDocument(500)
	te := newTestEngine(wf, doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	var noMatch *NoMatchingTransitionError
	if !errors.As(err, &noMatch) {
		t.Fatalf("error = %v, want *NoMatchingTransitionError", err)
	}
	if noMatch.NodeID != "review" {
		t.Errorf("error node = %q, want review", noMatch.NodeID)
	}
}

func TestAdvanceRetriesLostRevisionRace(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}

	// One lost race, then success on retry.
	te.docRepo.failWrites = 1
	result, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if result.Outcome != common_models.OutcomeFinished {
		t.Errorf("outcome = %q, want finished", result.Outcome)
	}
}

func TestAdvanceGivesUpAfterMaxRetries(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)
	ctx := context.Background()

	if _, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-0", common_models.ActionCreate); err != nil {
		t.Fatalf("create: %v", err)
	}

	te.docRepo.failWrites = 100
	_, err := te.svc.Advance(ctx, doc.ID.Hex(), "emp-1", common_models.ActionApprove)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Errorf("error = %v, want ErrConcurrentModification", err)
	}
}

func TestAdvanceWithoutWorkflowInUse(t *testing.T) {
	wf := saleOrderWorkflow()
	wf.InUse = false
	doc := newTestDocument(500)
	te := newTestEngine(wf, doc)

	_, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "emp-0", common_models.ActionCreate)
	if !errors.Is(err, ErrNoWorkflowInUse) {
		t.Errorf("error = %v, want ErrNoWorkflowInUse", err)
	}
}

func TestAdvanceUnknownAction(t *testing.T) {
	doc := newTestDocument(500)
	te := newTestEngine(saleOrderWorkflow(), doc)

	if _, err := te.svc.Advance(context.Background(), doc.ID.Hex(), "emp-0", "escalate"); err == nil {
		t.Error("expected an error for an unknown action verb")
	}
}
