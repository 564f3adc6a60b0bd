package audit

import (
	"context"
	"fmt"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserFinder interface {
	FindByEmployeeIDs(ctx context.Context, ids []string) ([]common_models.User, error)
}

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, appCode string, recordID string, changes map[string]common_models.Change) error
	LogAction(ctx context.Context, entry ActionEntry) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
	DocumentTrail(ctx context.Context, documentID string) ([]ActionEntry, error)
	ExportDocumentTrail(ctx context.Context, documentID string) ([]byte, string, error)
}

type AuditServiceImpl struct {
	Repo     AuditRepository
	UserRepo UserFinder
}

func NewAuditService(repo AuditRepository, userRepo UserFinder) AuditService {
	return &AuditServiceImpl{
		Repo:     repo,
		UserRepo: userRepo,
	}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, appCode string, recordID string, changes map[string]common_models.Change) error {
	actorID := "system"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		actorID = claims.UserID
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		AppCode:   appCode,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	return s.Repo.Create(ctx, log)
}

func (s *AuditServiceImpl) LogAction(ctx context.Context, entry ActionEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.Repo.AppendAction(ctx, entry)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filters, limit, offset)
}

func (s *AuditServiceImpl) DocumentTrail(ctx context.Context, documentID string) ([]ActionEntry, error) {
	oid, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Repo.ListActionsByDocument(ctx, oid)
	if err != nil {
		return nil, err
	}

	// Collect actor IDs
	actorIDs := make([]string, 0)
	uniqueIDs := make(map[string]bool)
	for _, e := range entries {
		if e.Actor != "" && !uniqueIDs[e.Actor] {
			uniqueIDs[e.Actor] = true
			actorIDs = append(actorIDs, e.Actor)
		}
	}

	// Batch fetch actor names
	userMap := make(map[string]string)
	if len(actorIDs) > 0 {
		users, err := s.UserRepo.FindByEmployeeIDs(ctx, actorIDs)
		if err == nil {
			for _, u := range users {
				userMap[u.EmployeeID] = u.Username
			}
		}
	}

	for i, e := range entries {
		if name, ok := userMap[e.Actor]; ok {
			entries[i].ActorName = name
		} else {
			entries[i].ActorName = "Unknown User"
		}
	}

	return entries, nil
}

// ExportDocumentTrail renders the full action chain of one document as an
// xlsx workbook.
func (s *AuditServiceImpl) ExportDocumentTrail(ctx context.Context, documentID string) ([]byte, string, error) {
	entries, err := s.DocumentTrail(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "ActionTrail"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"Timestamp", "Node", "Actor", "Action", "Outcome"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, e := range entries {
		values := []interface{}{
			e.Timestamp.Format(time.RFC3339),
			e.NodeID,
			e.ActorName,
			string(e.Action),
			string(e.Outcome),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("action-trail-%s.xlsx", documentID)
	return buf.Bytes(), filename, nil
}
