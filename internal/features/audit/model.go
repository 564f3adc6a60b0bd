package audit

import (
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActionEntry is one row of the append-only workflow action trail. Entries are
// written once at commit time and never updated.
type ActionEntry struct {
	ID         primitive.ObjectID           `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID           `bson:"tenant_id" json:"tenant_id"`
	DocumentID primitive.ObjectID           `bson:"document_id" json:"document_id"`
	WorkflowID primitive.ObjectID           `bson:"workflow_id" json:"workflow_id"`
	NodeID     string                       `bson:"node_id" json:"node_id"`
	Actor      string                       `bson:"actor" json:"actor"`
	ActorName  string                       `bson:"-" json:"actor_name,omitempty"`
	Action     common_models.WorkflowAction `bson:"action" json:"action"`
	Outcome    common_models.AdvanceOutcome `bson:"outcome" json:"outcome"`
	Timestamp  time.Time                    `bson:"timestamp" json:"timestamp"`
}
