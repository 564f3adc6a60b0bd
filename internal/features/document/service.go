package document

import (
	"context"
	"errors"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdvanceTrigger is the engine seen from the document side. Creation routes
// through it explicitly with the create action; there is no implicit
// interception around persistence.
type AdvanceTrigger interface {
	Advance(ctx context.Context, documentID string, actor string, action common_models.WorkflowAction) (*common_models.AdvanceResult, error)
}

type DocumentService interface {
	CreateDocument(ctx context.Context, doc *Document, actor string) (*Document, *common_models.AdvanceResult, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, tenantID primitive.ObjectID, appCode string, page, limit int64) ([]Document, error)
	UpdateDocument(ctx context.Context, id string, data map[string]interface{}, actor string) error
}

type DocumentServiceImpl struct {
	Repo         DocumentRepository
	Engine       AdvanceTrigger
	AuditService audit.AuditService
}

func NewDocumentService(repo DocumentRepository, engine AdvanceTrigger, auditService audit.AuditService) DocumentService {
	return &DocumentServiceImpl{
		Repo:         repo,
		Engine:       engine,
		AuditService: auditService,
	}
}

// CreateDocument persists the record as Draft and then explicitly drives it
// into its workflow with the create action.
func (s *DocumentServiceImpl) CreateDocument(ctx context.Context, doc *Document, actor string) (*Document, *common_models.AdvanceResult, error) {
	if doc.AppCode == "" {
		return nil, nil, errors.New("app_code is required")
	}

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.SystemStatus = common_models.StatusDraft
	doc.CreatedBy = actor
	doc.UpdatedBy = actor
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()

	if err := s.Repo.Create(ctx, doc); err != nil {
		return nil, nil, err
	}

	changes := map[string]common_models.Change{
		"document": {New: doc.Data},
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, doc.AppCode, doc.ID.Hex(), changes)

	result, err := s.Engine.Advance(ctx, doc.ID.Hex(), actor, common_models.ActionCreate)
	if err != nil {
		return doc, nil, err
	}

	fresh, getErr := s.Repo.Get(ctx, doc.ID)
	if getErr == nil && fresh != nil {
		doc = fresh
	}
	return doc, result, nil
}

func (s *DocumentServiceImpl) GetDocument(ctx context.Context, id string) (*Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, oid)
}

func (s *DocumentServiceImpl) ListDocuments(ctx context.Context, tenantID primitive.ObjectID, appCode string, page, limit int64) ([]Document, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.Repo.List(ctx, tenantID, appCode, limit, (page-1)*limit)
}

func (s *DocumentServiceImpl) UpdateDocument(ctx context.Context, id string, data map[string]interface{}, actor string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	doc, err := s.Repo.Get(ctx, oid)
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document not found")
	}
	// Closed documents never re-enter the workflow, so their payloads are
	// frozen as well.
	switch doc.SystemStatus {
	case common_models.StatusFinished, common_models.StatusCancelled,
		common_models.StatusRejected, common_models.StatusReturned:
		return errors.New("document is closed and cannot be edited")
	}

	old := doc.Data
	if err := s.Repo.UpdateData(ctx, oid, data, actor); err != nil {
		return err
	}

	changes := map[string]common_models.Change{
		"data": {Old: old, New: data},
	}
	return s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, doc.AppCode, id, changes)
}
