package workflow

import (
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workflow is a tenant-scoped approval template bound to one business
// application. The full graph (zones, nodes, associations) is owned by the
// workflow and persisted as one document.
type Workflow struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	AppCode      string             `bson:"app_code" json:"app_code"`
	Name         string             `bson:"name" json:"name"`
	Active       bool               `bson:"active" json:"active"`
	InUse        bool               `bson:"in_use" json:"in_use"`
	MultiCompany bool               `bson:"multi_company" json:"multi_company"`
	ZoneDefined  bool               `bson:"zone_defined" json:"zone_defined"`
	ActionLabels map[string]string  `bson:"action_labels,omitempty" json:"action_labels,omitempty"`
	Zones        []Zone             `bson:"zones,omitempty" json:"zones,omitempty"`
	Nodes        []Node             `bson:"nodes" json:"nodes"`
	Associations []Association      `bson:"associations" json:"associations"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Zone is a named collaborator grouping inside a workflow. Its property
// filters are compiled into employee queries at resolution time.
type Zone struct {
	ID         string                 `bson:"id" json:"id"`
	Name       string                 `bson:"name" json:"name"`
	Position   int                    `bson:"position" json:"position"`
	Properties *condition.FilterGroup `bson:"properties,omitempty" json:"properties,omitempty"`
}

// SourceMode selects how a node finds its eligible collaborators.
type SourceMode string

const (
	SourceFromField SourceMode = "from_field" // read employee IDs from a document field
	SourceExplicit  SourceMode = "explicit"   // the node carries the list verbatim
	SourceZone      SourceMode = "zone"       // union the membership of referenced zones
)

// CollaboratorSource is the tagged variant backing SourceMode. Only the field
// matching the mode is consulted.
type CollaboratorSource struct {
	Mode      SourceMode `bson:"mode" json:"mode"`
	FieldPath string     `bson:"field_path,omitempty" json:"field_path,omitempty"`
	Employees []string   `bson:"employees,omitempty" json:"employees,omitempty"`
	ZoneIDs   []string   `bson:"zone_ids,omitempty" json:"zone_ids,omitempty"`
}

// SystemCode marks reserved nodes. A workflow has exactly one initial node;
// complete/rejected/returned/cancelled nodes are terminal.
type SystemCode string

const (
	SystemInitial   SystemCode = "initial"
	SystemComplete  SystemCode = "complete"
	SystemRejected  SystemCode = "rejected"
	SystemReturned  SystemCode = "returned"
	SystemCancelled SystemCode = "cancelled"
)

// ActionRule is one row of a node's condition table: the minimum number of
// distinct collaborators whose action is required before the node fires.
// An Else row matches any action not otherwise listed and may appear at most
// once per node.
type ActionRule struct {
	Action          common_models.WorkflowAction `bson:"action,omitempty" json:"action,omitempty"`
	MinCollaborator int                          `bson:"min_collaborator" json:"min_collaborator"`
	Else            bool                         `bson:"else,omitempty" json:"else,omitempty"`
}

// Node is a state in the approval graph.
type Node struct {
	ID             string                         `bson:"id" json:"id"`
	Position       int                            `bson:"position" json:"position"`
	Description    string                         `bson:"description,omitempty" json:"description,omitempty"`
	Actions        []common_models.WorkflowAction `bson:"actions" json:"actions"`
	IsSystem       bool                           `bson:"is_system,omitempty" json:"is_system,omitempty"`
	SystemCode     SystemCode                     `bson:"system_code,omitempty" json:"system_code,omitempty"`
	Source         CollaboratorSource             `bson:"source" json:"source"`
	ConditionTable []ActionRule                   `bson:"condition_table,omitempty" json:"condition_table,omitempty"`
}

// Terminal reports whether the node closes the document lifecycle.
func (n *Node) Terminal() bool {
	if !n.IsSystem {
		return false
	}
	switch n.SystemCode {
	case SystemComplete, SystemRejected, SystemReturned, SystemCancelled:
		return true
	}
	return false
}

// AllowsAction reports whether the verb is valid at this node.
func (n *Node) AllowsAction(action common_models.WorkflowAction) bool {
	for _, a := range n.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Threshold returns the quorum for an action: the explicit row if listed, the
// else row if present, otherwise 1.
func (n *Node) Threshold(action common_models.WorkflowAction) int {
	var elseMin int
	for _, rule := range n.ConditionTable {
		if rule.Else {
			elseMin = rule.MinCollaborator
			continue
		}
		if rule.Action == action {
			if rule.MinCollaborator < 1 {
				return 1
			}
			return rule.MinCollaborator
		}
	}
	if elseMin >= 1 {
		return elseMin
	}
	return 1
}

// Association is a guarded, directed transition edge between two nodes. The
// condition is stored in its raw form and parsed at load time.
type Association struct {
	ID        string      `bson:"id" json:"id"`
	NodeIn    string      `bson:"node_in" json:"node_in"`
	NodeOut   string      `bson:"node_out" json:"node_out"`
	Condition interface{} `bson:"condition,omitempty" json:"condition,omitempty"`
}

// NodeByID looks a node up inside the workflow graph.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}

// InitialNode returns the unique entry node of the graph, or nil when the
// graph is misconfigured.
func (w *Workflow) InitialNode() *Node {
	for i := range w.Nodes {
		if w.Nodes[i].IsSystem && w.Nodes[i].SystemCode == SystemInitial {
			return &w.Nodes[i]
		}
	}
	return nil
}

// Outgoing returns the associations leaving a node in their stored order.
// Stored order is authoritative for transition tie-breaks.
func (w *Workflow) Outgoing(nodeID string) []Association {
	var out []Association
	for _, a := range w.Associations {
		if a.NodeIn == nodeID {
			out = append(out, a)
		}
	}
	return out
}

// ZoneByID looks a zone up inside the workflow.
func (w *Workflow) ZoneByID(id string) *Zone {
	for i := range w.Zones {
		if w.Zones[i].ID == id {
			return &w.Zones[i]
		}
	}
	return nil
}
