package opa

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/CameronXie/order-service/internal/decisionmaker"
	"github.com/CameronXie/order-service/internal/infoprovider"
	"github.com/CameronXie/order-service/internal/policyretriever"
)

const (
	moduleName = "orders.rego"
)

// DecisionMaker evaluates a prepared Rego query. The query is compiled once
// and recompiled only by Reload.
type DecisionMaker struct {
	policyRetriever policyretriever.PolicyRetriever
	infoProvider    infoprovider.InfoProvider
	query           string

	mu       sync.RWMutex
	prepared rego.PreparedEvalQuery
}

// NewDecisionMaker compiles the policy from policyRetriever and returns a
// DecisionMaker answering query.
func NewDecisionMaker(
	ctx context.Context,
	policyRetriever policyretriever.PolicyRetriever,
	infoProvider infoprovider.InfoProvider,
	query string,
) (*DecisionMaker, error) {
	d := &DecisionMaker{
		policyRetriever: policyRetriever,
		infoProvider:    infoProvider,
		query:           query,
	}

	if err := d.Reload(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// Reload fetches and compiles the policy again. On failure the previously
// compiled policy stays in use.
func (d *DecisionMaker) Reload(ctx context.Context) error {
	policy, err := d.policyRetriever.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to get policy: %w", err)
	}

	prepared, err := rego.New(rego.Module(moduleName, policy), rego.Query(d.query)).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare query: %w", err)
	}

	d.mu.Lock()
	d.prepared = prepared
	d.mu.Unlock()

	return nil
}

// MakeDecision evaluates the policy for the subject's roles and the requested action.
func (d *DecisionMaker) MakeDecision(ctx context.Context, req *decisionmaker.DecisionRequest) (bool, error) {
	roles, err := d.infoProvider.GetRoles(req.Subject)
	if err != nil {
		return false, fmt.Errorf("failed to get roles: %w", err)
	}

	d.mu.RLock()
	prepared := d.prepared
	d.mu.RUnlock()

	result, err := prepared.Eval(ctx, rego.EvalInput(map[string]any{
		"subject":  req.Subject,
		"roles":    roles,
		"action":   req.Action,
		"resource": req.Resource,
	}))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate query: %w", err)
	}

	if len(result) == 0 || len(result[0].Expressions) == 0 {
		return false, fmt.Errorf("failed to evaluate query: %s is undefined", d.query)
	}

	allowed, ok := result[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("failed to evaluate query: %s is not a boolean", d.query)
	}

	return allowed, nil
}
