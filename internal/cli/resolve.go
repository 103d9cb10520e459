package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmaddaus/rocktalk/internal/engine"
	"github.com/jmaddaus/rocktalk/internal/model"
	"github.com/jmaddaus/rocktalk/internal/store"
)

// resolveID turns an id argument into a full issue id. Any unique fragment
// of an id is accepted.
func resolveID(ctx context.Context, s store.Store, arg string) (string, error) {
	all, err := s.ListIssues(ctx, model.IssueFilter{})
	if err != nil {
		return "", fmt.Errorf("list issues: %w", err)
	}
	candidates := engine.ResolveFragment(all, arg)
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("issue %s: %w", arg, store.ErrNotFound)
	case 1:
		return candidates[0].ID, nil
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return "", fmt.Errorf("issue id %q is ambiguous, matches: %s", arg, strings.Join(ids, ", "))
}
