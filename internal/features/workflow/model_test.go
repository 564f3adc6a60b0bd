package workflow

import (
	"testing"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
)

func TestNodeThreshold(t *testing.T) {
	tests := []struct {
		name   string
		table  []ActionRule
		action common_models.WorkflowAction
		want   int
	}{
		{
			name:   "no table defaults to one",
			table:  nil,
			action: common_models.ActionApprove,
			want:   1,
		},
		{
			name: "explicit row wins",
			table: []ActionRule{
				{Action: common_models.ActionApprove, MinCollaborator: 3},
				{Else: true, MinCollaborator: 2},
			},
			action: common_models.ActionApprove,
			want:   3,
		},
		{
			name: "else row covers unlisted actions",
			table: []ActionRule{
				{Action: common_models.ActionApprove, MinCollaborator: 3},
				{Else: true, MinCollaborator: 2},
			},
			action: common_models.ActionReject,
			want:   2,
		},
		{
			name: "unlisted action without else defaults to one",
			table: []ActionRule{
				{Action: common_models.ActionApprove, MinCollaborator: 3},
			},
			action: common_models.ActionReturn,
			want:   1,
		},
		{
			name: "zero minimum is clamped to one",
			table: []ActionRule{
				{Action: common_models.ActionApprove, MinCollaborator: 0},
			},
			action: common_models.ActionApprove,
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Node{ConditionTable: tt.table}
			if got := n.Threshold(tt.action); got != tt.want {
				t.Errorf("Threshold(%q) = %d, want %d", tt.action, got, tt.want)
			}
		})
	}
}

func TestNodeTerminal(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"complete node", Node{IsSystem: true, SystemCode: SystemComplete}, true},
		{"rejected node", Node{IsSystem: true, SystemCode: SystemRejected}, true},
		{"returned node", Node{IsSystem: true, SystemCode: SystemReturned}, true},
		{"cancelled node", Node{IsSystem: true, SystemCode: SystemCancelled}, true},
		{"initial node", Node{IsSystem: true, SystemCode: SystemInitial}, false},
		{"plain node", Node{}, false},
		{"non-system node with terminal code", Node{SystemCode: SystemComplete}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkflowOutgoingPreservesStoredOrder(t *testing.T) {
	wf := Workflow{
		Associations: []Association{
			{ID: "a1", NodeIn: "n1", NodeOut: "n2"},
			{ID: "a2", NodeIn: "n2", NodeOut: "n3"},
			{ID: "a3", NodeIn: "n1", NodeOut: "n3"},
			{ID: "a4", NodeIn: "n1", NodeOut: "n4"},
		},
	}

	out := wf.Outgoing("n1")
	if len(out) != 3 {
		t.Fatalf("Outgoing() returned %d associations, want 3", len(out))
	}
	for i, wantID := range []string{"a1", "a3", "a4"} {
		if out[i].ID != wantID {
			t.Errorf("Outgoing()[%d] = %q, want %q", i, out[i].ID, wantID)
		}
	}
}
