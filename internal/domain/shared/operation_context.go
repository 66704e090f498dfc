package shared

import "github.com/google/uuid"

// ActionContext gives traceability from a high-level AI driver action (e.g.
// "build bus route between A and B") down to the individual commands it
// issues, mirroring the teacher's OperationContext/ledger linkage but
// correlating command-dispatcher calls (C12) instead of money transactions.
type ActionContext struct {
	ActionID   string
	ActionKind string
}

// NewActionContext starts a new correlation id for an AI driver action.
func NewActionContext(actionKind string) *ActionContext {
	return &ActionContext{ActionID: uuid.NewString(), ActionKind: actionKind}
}

func (c *ActionContext) String() string {
	if c == nil {
		return "<no action context>"
	}
	return c.ActionKind + ":" + c.ActionID
}
