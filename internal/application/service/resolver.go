package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/assignee"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"go.uber.org/zap"
)

// AssigneeResolver maps a stored assignee specification to concrete user ids
type AssigneeResolver interface {
	// Resolve returns the sorted set of user ids a spec designates.
	// An empty result is ErrNoApproversFound; such a step could never
	// progress, so the caller must abort whatever it was creating.
	Resolve(ctx context.Context, spec string) ([]string, error)
}

type assigneeResolverImpl struct {
	roleMembers port.RoleMemberRepository
	logger      *zap.Logger
}

// NewAssigneeResolver creates a new AssigneeResolver
func NewAssigneeResolver(roleMembers port.RoleMemberRepository, logger *zap.Logger) AssigneeResolver {
	return &assigneeResolverImpl{
		roleMembers: roleMembers,
		logger:      logger,
	}
}

// Resolve parses the spec in either historical encoding and resolves role
// codes to the union of their member user ids.
func (r *assigneeResolverImpl) Resolve(ctx context.Context, spec string) ([]string, error) {
	parsed := assignee.New(spec)

	if userID, ok := parsed.UserID(); ok {
		return []string{userID}, nil
	}

	roles := parsed.Roles()
	if len(roles) == 0 {
		return nil, fmt.Errorf("empty assignee spec: %w", workflow.ErrNoApproversFound)
	}

	seen := make(map[string]bool)
	var users []string
	for _, role := range roles {
		members, err := r.roleMembers.MembersOf(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("resolve role %s: %w", role, err)
		}
		for _, id := range members {
			if !seen[id] {
				seen[id] = true
				users = append(users, id)
			}
		}
	}

	if len(users) == 0 {
		r.logger.Warn("Assignee spec resolved to no users", zap.String("spec", spec))
		return nil, fmt.Errorf("spec %q: %w", spec, workflow.ErrNoApproversFound)
	}

	sort.Strings(users)
	return users, nil
}
