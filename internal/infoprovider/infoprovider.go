// Package infoprovider supplies subject attributes to policy evaluation.
package infoprovider

import (
	"fmt"
	"slices"
	"strings"
)

type InfoProvider interface {
	GetRoles(subject string) ([]string, error)
}

type staticInfoProvider struct {
	roles map[string][]string
}

// GetRoles returns the roles assigned to subject. Subjects without an
// assignment have no roles.
func (p *staticInfoProvider) GetRoles(subject string) ([]string, error) {
	roles, ok := p.roles[subject]
	if !ok {
		return []string{}, nil
	}

	return slices.Clone(roles), nil
}

// NewStaticInfoProvider serves roles from a fixed subject to roles map.
func NewStaticInfoProvider(roles map[string][]string) InfoProvider {
	return &staticInfoProvider{roles: roles}
}

// ParseRoles reads assignments written as "subject:role" separated by commas,
// e.g. "principal:99:suspended,principal:7:readonly". The role is the part
// after the last colon, so subjects may contain colons themselves.
func ParseRoles(value string) (map[string][]string, error) {
	roles := make(map[string][]string)

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		i := strings.LastIndex(entry, ":")
		if i <= 0 || i == len(entry)-1 {
			return nil, fmt.Errorf("invalid role assignment %q: expected subject:role", entry)
		}

		subject := strings.ToLower(entry[:i])
		role := strings.ToLower(entry[i+1:])
		if !slices.Contains(roles[subject], role) {
			roles[subject] = append(roles[subject], role)
		}
	}

	return roles, nil
}
