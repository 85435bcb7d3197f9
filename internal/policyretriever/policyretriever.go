// Package policyretriever loads Rego policies for the OPA decision maker.
package policyretriever

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed default.rego
var defaultPolicy string

// DefaultQuery is the rule evaluated against DefaultPolicy.
const DefaultQuery = "data.orders.authz.allow"

type PolicyRetriever interface {
	GetPolicy() (string, error)
}

type staticPolicyRetriever struct {
	policy string
}

// GetPolicy returns the policy the retriever was created with.
func (p *staticPolicyRetriever) GetPolicy() (string, error) {
	return p.policy, nil
}

// NewStaticPolicyRetriever serves a policy held in memory.
func NewStaticPolicyRetriever(policy string) PolicyRetriever {
	return &staticPolicyRetriever{policy: policy}
}

// Default serves the built-in orders policy.
func Default() PolicyRetriever {
	return NewStaticPolicyRetriever(defaultPolicy)
}

type filePolicyRetriever struct {
	path string
}

// GetPolicy reads the policy file on every call so edits are picked up on reload.
func (p *filePolicyRetriever) GetPolicy() (string, error) {
	content, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read policy file %s: %w", p.path, err)
	}

	return string(content), nil
}

func NewFilePolicyRetriever(path string) PolicyRetriever {
	return &filePolicyRetriever{path: path}
}
