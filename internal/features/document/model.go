package document

import (
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuntimeState is the document's workflow pointer. Rev is an optimistic
// concurrency counter: every committed state change increments it, and writers
// condition their updates on the value they read.
type RuntimeState struct {
	WorkflowID primitive.ObjectID `bson:"workflow_id" json:"workflow_id"`
	NodeID     string             `bson:"node_id" json:"node_id"`
	Rev        int64              `bson:"rev" json:"rev"`
}

// Document is a generic business record (sale order, purchase request,
// budget, ...). The engine only touches system_status, date_approved, the
// workflow pointer, and reads Data for condition and collaborator fields.
type Document struct {
	ID           primitive.ObjectID         `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID         `bson:"tenant_id" json:"tenant_id"`
	CompanyID    string                     `bson:"company_id,omitempty" json:"company_id,omitempty"`
	AppCode      string                     `bson:"app_code" json:"app_code"`
	Data         map[string]interface{}     `bson:"data" json:"data"`
	SystemStatus common_models.SystemStatus `bson:"system_status" json:"system_status"`
	DateApproved *time.Time                 `bson:"date_approved,omitempty" json:"date_approved,omitempty"`
	Workflow     *RuntimeState              `bson:"workflow,omitempty" json:"workflow,omitempty"`
	CreatedBy    string                     `bson:"created_by" json:"created_by"`
	UpdatedBy    string                     `bson:"updated_by" json:"updated_by"`
	CreatedAt    time.Time                  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time                  `bson:"updated_at" json:"updated_at"`
}

// Field resolves a dot-separated path into the document data map. Nested
// values may arrive as primitive.M or primitive.D depending on how the record
// was decoded, so all document shapes are accepted.
func (d *Document) Field(path string) (interface{}, bool) {
	var current interface{} = d.Data
	for _, part := range splitPath(path) {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
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

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
