package engine

import (
	"errors"
	"testing"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func plannerWorkflow(associations []workflow.Association) *workflow.Workflow {
	return &workflow.Workflow{
		ID: primitive.NewObjectID(),
		Nodes: []workflow.Node{
			{ID: "review"},
			{ID: "low"},
			{ID: "high"},
			{ID: "fallback"},
		},
		Associations: associations,
	}
}

func TestPlanFirstMatchWins(t *testing.T) {
	wf := plannerWorkflow([]workflow.Association{
		{ID: "a1", NodeIn: "review", NodeOut: "high", Condition: map[string]interface{}{
			"left": "$amount", "math": ">=", "right": 1000, "type": "number",
		}},
		{ID: "a2", NodeIn: "review", NodeOut: "low", Condition: map[string]interface{}{
			"left": "$amount", "math": "<", "right": 1000, "type": "number",
		}},
		{ID: "a3", NodeIn: "review", NodeOut: "fallback"},
	})
	planner := NewTransitionPlanner(zap.NewNop())

	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"routes high", 5000, "high"},
		{"routes low", 200, "low"},
		// Both guards could never match here; the empty guard is always true,
		// but a1 fires first for large amounts even though a3 would match too.
		{"stored order breaks ties", 1000, "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := planner.Plan(wf, wf.NodeByID("review"), common_models.ActionApprove,
				map[string]interface{}{"amount": tt.amount})
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if target.ID != tt.want {
				t.Errorf("Plan() = %q, want %q", target.ID, tt.want)
			}
		})
	}
}

// A terminal node never routes anywhere; the planner answers with the node
// itself instead of walking associations.
func TestPlanTerminalNodeIsItsOwnOutcome(t *testing.T) {
	wf := &workflow.Workflow{
		ID: primitive.NewObjectID(),
		Nodes: []workflow.Node{
			{ID: "done", IsSystem: true, SystemCode: workflow.SystemComplete},
			{ID: "elsewhere"},
		},
		Associations: []workflow.Association{
			// A stray association out of a terminal node must be ignored.
			{ID: "a1", NodeIn: "done", NodeOut: "elsewhere"},
		},
	}
	planner := NewTransitionPlanner(zap.NewNop())

	target, err := planner.Plan(wf, wf.NodeByID("done"), common_models.ActionApprove, nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if target.ID != "done" {
		t.Errorf("Plan() = %q, want done", target.ID)
	}
}

func TestPlanNoMatch(t *testing.T) {
	wf := plannerWorkflow([]workflow.Association{
		{ID: "a1", NodeIn: "review", NodeOut: "high", Condition: map[string]interface{}{
			"left": "$amount", "math": ">=", "right": 1000, "type": "number",
		}},
	})
	planner := NewTransitionPlanner(zap.NewNop())

	_, err := planner.Plan(wf, wf.NodeByID("review"), common_models.ActionApprove,
		map[string]interface{}{"amount": 5.0})
	var noMatch *NoMatchingTransitionError
	if !errors.As(err, &noMatch) {
		t.Fatalf("error = %v, want *NoMatchingTransitionError", err)
	}
	if noMatch.Action != common_models.ActionApprove {
		t.Errorf("error action = %q, want approve", noMatch.Action)
	}
}

// A guard that cannot be evaluated counts as false; the walk continues to the
// next association rather than aborting.
func TestPlanFailedGuardIsSkipped(t *testing.T) {
	wf := plannerWorkflow([]workflow.Association{
		{ID: "a1", NodeIn: "review", NodeOut: "high", Condition: map[string]interface{}{
			"left": "$missing_field", "math": ">=", "right": 1000, "type": "number",
		}},
		{ID: "a2", NodeIn: "review", NodeOut: "fallback"},
	})
	planner := NewTransitionPlanner(zap.NewNop())

	target, err := planner.Plan(wf, wf.NodeByID("review"), common_models.ActionApprove,
		map[string]interface{}{"amount": 5.0})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if target.ID != "fallback" {
		t.Errorf("Plan() = %q, want fallback", target.ID)
	}
}

func TestPlanSkipsDanglingTarget(t *testing.T) {
	wf := plannerWorkflow([]workflow.Association{
		{ID: "a1", NodeIn: "review", NodeOut: "ghost"},
		{ID: "a2", NodeIn: "review", NodeOut: "low"},
	})
	planner := NewTransitionPlanner(zap.NewNop())

	target, err := planner.Plan(wf, wf.NodeByID("review"), common_models.ActionApprove, nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if target.ID != "low" {
		t.Errorf("Plan() = %q, want low", target.ID)
	}
}
