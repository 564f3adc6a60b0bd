package engine

import (
	"errors"
	"fmt"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
)

var (
	// ErrActorNotAuthorized means the acting employee is not among the
	// collaborators resolved for the document's current node.
	ErrActorNotAuthorized = errors.New("actor is not a collaborator on the current node")

	// ErrConcurrentModification is returned once the bounded retry budget is
	// exhausted: another writer kept committing first.
	ErrConcurrentModification = errors.New("document was modified concurrently")

	// ErrNoWorkflowInUse means the tenant has no active in-use workflow for
	// the document's application.
	ErrNoWorkflowInUse = errors.New("no workflow in use for this application")

	// ErrDocumentClosed means the document already reached a terminal node.
	ErrDocumentClosed = errors.New("document lifecycle is closed")
)

// ResolutionError reports that collaborator sourcing produced no usable
// actors. The engine never falls back to an empty set silently.
type ResolutionError struct {
	WorkflowID string
	NodeID     string
	Reason     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("collaborator resolution failed at node %s of workflow %s: %s", e.NodeID, e.WorkflowID, e.Reason)
}

// NoMatchingTransitionError reports a satisfied quorum with no outgoing
// association whose guard held.
type NoMatchingTransitionError struct {
	WorkflowID string
	NodeID     string
	Action     common_models.WorkflowAction
}

func (e *NoMatchingTransitionError) Error() string {
	return fmt.Sprintf("no transition matched for action %q at node %s of workflow %s", e.Action, e.NodeID, e.WorkflowID)
}
