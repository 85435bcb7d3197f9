// Package enforcer is the policy enforcement point in front of a decision maker.
package enforcer

import (
	"context"
	"fmt"
	"strings"

	"github.com/CameronXie/order-service/internal/decisionmaker"
)

type Enforcer interface {
	Enforce(ctx context.Context, req *AccessRequest) (bool, error)
}

type AccessRequest struct {
	Subject  string
	Resource string
	Action   string
}

// PrincipalRequest asks whether a users-service principal may perform action
// on resource. The subject takes the form "principal:<id>".
func PrincipalRequest(principalID int64, resource, action string) *AccessRequest {
	return &AccessRequest{
		Subject:  fmt.Sprintf("principal:%d", principalID),
		Resource: resource,
		Action:   action,
	}
}

type enforcer struct {
	decisionMaker decisionmaker.DecisionMaker
}

// Enforce normalises the request to lower case before asking the decision maker.
func (e *enforcer) Enforce(ctx context.Context, req *AccessRequest) (bool, error) {
	return e.decisionMaker.MakeDecision(
		ctx,
		&decisionmaker.DecisionRequest{
			Subject:  strings.ToLower(req.Subject),
			Resource: strings.ToLower(req.Resource),
			Action:   strings.ToLower(req.Action),
		},
	)
}

func NewEnforcer(decisionMaker decisionmaker.DecisionMaker) Enforcer {
	return &enforcer{decisionMaker: decisionMaker}
}

type allowAll struct{}

func (allowAll) Enforce(context.Context, *AccessRequest) (bool, error) {
	return true, nil
}

// AllowAll permits every request. It is used when no policy engine is configured.
func AllowAll() Enforcer {
	return allowAll{}
}
