package engine

import (
	"context"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuorumTracker records one actor's action at a node and reports whether the
// node's threshold for that action is now met. Distinct actors count once:
// repeating an identical action is a duplicate, not extra weight.
type QuorumTracker struct {
	Repo EngineRepository
}

func NewQuorumTracker(repo EngineRepository) *QuorumTracker {
	return &QuorumTracker{Repo: repo}
}

// Record returns the quorum state after the action and whether the submission
// was a duplicate. Duplicates leave the stored records untouched.
func (q *QuorumTracker) Record(ctx context.Context, tenantID, documentID primitive.ObjectID, node *workflow.Node, actor string, action common_models.WorkflowAction) (QuorumState, bool, error) {
	exists, err := q.Repo.HasAction(ctx, documentID, node.ID, actor, string(action))
	if err != nil {
		return QuorumPending, false, err
	}
	if exists {
		state, err := q.state(ctx, documentID, node, action)
		return state, true, err
	}

	err = q.Repo.InsertAction(ctx, ActionRecord{
		TenantID:   tenantID,
		DocumentID: documentID,
		NodeID:     node.ID,
		Actor:      actor,
		Action:     action,
	})
	if err != nil {
		return QuorumPending, false, err
	}

	state, err := q.state(ctx, documentID, node, action)
	return state, false, err
}

func (q *QuorumTracker) state(ctx context.Context, documentID primitive.ObjectID, node *workflow.Node, action common_models.WorkflowAction) (QuorumState, error) {
	count, err := q.Repo.CountDistinctActors(ctx, documentID, node.ID, string(action))
	if err != nil {
		return QuorumPending, err
	}
	if count >= node.Threshold(action) {
		return QuorumSatisfied, nil
	}
	return QuorumPending, nil
}
