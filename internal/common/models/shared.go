package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	TenantIDKey  ContextKey = "tenant_id"
	CompanyIDKey ContextKey = "company_id"
)

// SystemStatus is the externally visible lifecycle status of a business
// document. Only the workflow engine mutates it at Pending/terminal
// boundaries.
type SystemStatus int

const (
	StatusDraft     SystemStatus = 0
	StatusPending   SystemStatus = 1
	StatusApproved  SystemStatus = 2
	StatusFinished  SystemStatus = 3
	StatusCancelled SystemStatus = 4
	StatusRejected  SystemStatus = 5
	StatusReturned  SystemStatus = 6
)

// WorkflowAction is one of the verbs an actor may take at a node.
type WorkflowAction string

const (
	ActionCreate  WorkflowAction = "create"
	ActionApprove WorkflowAction = "approve"
	ActionReject  WorkflowAction = "reject"
	ActionReturn  WorkflowAction = "return"
	ActionReceive WorkflowAction = "receive"
	ActionTodo    WorkflowAction = "todo"
)

// ValidActions lists every verb a node's action set may contain.
var ValidActions = []WorkflowAction{
	ActionCreate, ActionApprove, ActionReject, ActionReturn, ActionReceive, ActionTodo,
}

// AdvanceOutcome labels the result of one engine invocation.
type AdvanceOutcome string

const (
	OutcomePending  AdvanceOutcome = "pending"
	OutcomeAdvanced AdvanceOutcome = "advanced"
	OutcomeFinished AdvanceOutcome = "finished"
	OutcomeRejected AdvanceOutcome = "rejected"
	OutcomeReturned AdvanceOutcome = "returned"
	OutcomeCancel   AdvanceOutcome = "cancelled"
)

// AdvanceResult is what one engine invocation reports back to the caller.
// Duplicate marks an idempotent no-op: the action was already recorded and
// nothing changed.
type AdvanceResult struct {
	Outcome   AdvanceOutcome `json:"outcome"`
	NodeID    string         `json:"node_id,omitempty"`
	Status    SystemStatus   `json:"status"`
	Duplicate bool           `json:"duplicate,omitempty"`
}

type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionAdvance  AuditAction = "ADVANCE"
	AuditActionActivate AuditAction = "ACTIVATE"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Action    AuditAction        `bson:"action" json:"action"`
	AppCode   string             `bson:"app_code" json:"app_code"`
	RecordID  string             `bson:"record_id" json:"record_id"`
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	ActorName string             `bson:"-" json:"actor_name,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"`
	Email      string             `bson:"email" json:"email"`
	EmployeeID string             `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	CompanyID  string             `bson:"company_id,omitempty" json:"company_id,omitempty"`
	Status     string             `bson:"status" json:"status"` // active, inactive, suspended
	LastLogin  *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"`
	TenantId     string    `bson:"tenant_id" json:"tenant_id"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
