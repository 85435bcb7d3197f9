// Package decisionmaker defines the policy decision point used to allow or
// deny an order operation for a principal.
package decisionmaker

import "context"

type DecisionRequest struct {
	Subject  string
	Resource string
	Action   string
}

type DecisionMaker interface {
	MakeDecision(ctx context.Context, req *DecisionRequest) (bool, error)
}
