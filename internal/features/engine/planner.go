package engine

import (
	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"
	"github.com/kienquocIT/mis-api-sub003/pkg/condition"

	"go.uber.org/zap"
)

// TransitionPlanner picks the next node once a quorum is satisfied. Outgoing
// associations are tried in stored order and the first whose guard holds wins.
// A guard that fails to evaluate counts as false and the walk continues.
type TransitionPlanner struct {
	Logger *zap.Logger
}

func NewTransitionPlanner(logger *zap.Logger) *TransitionPlanner {
	return &TransitionPlanner{Logger: logger}
}

func (p *TransitionPlanner) Plan(wf *workflow.Workflow, node *workflow.Node, action common_models.WorkflowAction, evalCtx map[string]interface{}) (*workflow.Node, error) {
	// A terminal node has no outgoing associations; it is its own outcome.
	if node.Terminal() {
		return node, nil
	}

	for _, assoc := range wf.Outgoing(node.ID) {
		cond, err := condition.Parse(assoc.Condition)
		if err != nil {
			p.Logger.Warn("unparseable transition guard skipped",
				zap.String("workflow_id", wf.ID.Hex()),
				zap.String("association_id", assoc.ID),
				zap.Error(err),
			)
			continue
		}

		matched, err := condition.Evaluate(cond, evalCtx)
		if err != nil {
			p.Logger.Warn("transition guard evaluated with errors",
				zap.String("workflow_id", wf.ID.Hex()),
				zap.String("association_id", assoc.ID),
				zap.Error(err),
			)
		}
		if !matched {
			continue
		}

		target := wf.NodeByID(assoc.NodeOut)
		if target == nil {
			p.Logger.Warn("transition points at missing node",
				zap.String("workflow_id", wf.ID.Hex()),
				zap.String("association_id", assoc.ID),
				zap.String("node_out", assoc.NodeOut),
			)
			continue
		}
		return target, nil
	}

	return nil, &NoMatchingTransitionError{
		WorkflowID: wf.ID.Hex(),
		NodeID:     node.ID,
		Action:     action,
	}
}
