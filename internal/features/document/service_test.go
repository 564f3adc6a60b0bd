package document

import (
	"context"
	"testing"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubDocRepo struct {
	docs    map[primitive.ObjectID]*Document
	updated bool
}

func (r *stubDocRepo) Create(ctx context.Context, doc *Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *stubDocRepo) Get(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	return r.docs[id], nil
}

func (r *stubDocRepo) List(ctx context.Context, tenantID primitive.ObjectID, appCode string, limit, offset int64) ([]Document, error) {
	return nil, nil
}

func (r *stubDocRepo) UpdateData(ctx context.Context, id primitive.ObjectID, data map[string]interface{}, updatedBy string) error {
	r.updated = true
	r.docs[id].Data = data
	return nil
}

func (r *stubDocRepo) InitWorkflowState(ctx context.Context, id primitive.ObjectID, state RuntimeState) error {
	return nil
}

func (r *stubDocRepo) SetStatus(ctx context.Context, id primitive.ObjectID, expectedRev int64, status common_models.SystemStatus) error {
	return nil
}

func (r *stubDocRepo) AdvanceNode(ctx context.Context, id primitive.ObjectID, expectedRev int64, nodeID string, status common_models.SystemStatus, setDateApproved bool) error {
	return nil
}

type stubAuditService struct{}

func (s *stubAuditService) LogChange(ctx context.Context, action common_models.AuditAction, appCode string, recordID string, changes map[string]common_models.Change) error {
	return nil
}
func (s *stubAuditService) LogAction(ctx context.Context, entry audit.ActionEntry) error { return nil }
func (s *stubAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}
func (s *stubAuditService) DocumentTrail(ctx context.Context, documentID string) ([]audit.ActionEntry, error) {
	return nil, nil
}
func (s *stubAuditService) ExportDocumentTrail(ctx context.Context, documentID string) ([]byte, string, error) {
	return nil, "", nil
}

type stubTrigger struct{}

func (t *stubTrigger) Advance(ctx context.Context, documentID string, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, error) {
	return &common_models.AdvanceResult{Outcome: common_models.OutcomeAdvanced}, nil
}

// Any closed status freezes the payload, including rejected and returned
// documents, which can never re-enter the workflow.
func TestUpdateDocumentClosedStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   common_models.SystemStatus
		editable bool
	}{
		{"draft is editable", common_models.StatusDraft, true},
		{"pending is editable", common_models.StatusPending, true},
		{"finished is frozen", common_models.StatusFinished, false},
		{"cancelled is frozen", common_models.StatusCancelled, false},
		{"rejected is frozen", common_models.StatusRejected, false},
		{"returned is frozen", common_models.StatusReturned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{
				ID:           primitive.NewObjectID(),
				AppCode:      "sale_order",
				SystemStatus: tt.status,
				Data:         map[string]interface{}{"amount": 100},
			}
			repo := &stubDocRepo{docs: map[primitive.ObjectID]*Document{doc.ID: doc}}
			svc := NewDocumentService(repo, &stubTrigger{}, &stubAuditService{})

			err := svc.UpdateDocument(context.Background(), doc.ID.Hex(),
				map[string]interface{}{"amount": 200}, "emp-1")

			if tt.editable {
				if err != nil {
					t.Fatalf("UpdateDocument() error = %v", err)
				}
				if !repo.updated {
					t.Error("repository was not written")
				}
				return
			}
			if err == nil {
				t.Fatal("expected the edit to be refused")
			}
			if repo.updated {
				t.Error("repository was written despite the closed status")
			}
		})
	}
}
