package engine

import (
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collaborator is one eligible actor pinned to a document at a node. The set
// is resolved once per (document, node) visit and reused on later calls, so a
// document mid-approval is not affected by later edits to the source field or
// zone membership.
type Collaborator struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	NodeID     string             `bson:"node_id" json:"node_id"`
	EmployeeID string             `bson:"employee_id" json:"employee_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// ActionRecord is one actor's vote at a node. At most one record exists per
// (document, node, actor, action); a second identical submission is a no-op.
type ActionRecord struct {
	ID         primitive.ObjectID           `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID           `bson:"tenant_id" json:"tenant_id"`
	DocumentID primitive.ObjectID           `bson:"document_id" json:"document_id"`
	NodeID     string                       `bson:"node_id" json:"node_id"`
	Actor      string                       `bson:"actor" json:"actor"`
	Action     common_models.WorkflowAction `bson:"action" json:"action"`
	Timestamp  time.Time                    `bson:"timestamp" json:"timestamp"`
}

// QuorumState is the verdict after recording one action.
type QuorumState string

const (
	QuorumPending   QuorumState = "pending"
	QuorumSatisfied QuorumState = "satisfied"
)

// AdvanceEvent is the fact broadcast after a committed engine invocation.
type AdvanceEvent struct {
	DocumentID string                       `json:"document_id"`
	AppCode    string                       `json:"app_code"`
	TenantID   string                       `json:"tenant_id"`
	WorkflowID string                       `json:"workflow_id"`
	NodeID     string                       `json:"node_id"`
	Actor      string                       `json:"actor"`
	Action     common_models.WorkflowAction `json:"action"`
	Outcome    common_models.AdvanceOutcome `json:"outcome"`
	Status     common_models.SystemStatus   `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
}
