package api

import (
	"context"
	"fmt"
	"strings"
)

// Operator is the authenticated back-office user as reported by the backend
// profile endpoint.
type Operator struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	BranchID int      `json:"branchId"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the operator holds any of names (case-insensitive).
func (o *Operator) HasRole(names ...string) bool {
	for _, have := range o.Roles {
		for _, want := range names {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// Me resolves the operator that owns token.  A rejected token yields an
// error matching ErrUnauthorized.
func (c *Client) Me(ctx context.Context, token string) (*Operator, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	var op Operator
	if err := c.GetJSON(WithToken(ctx, token), "/auth/me", nil, &op); err != nil {
		return nil, err
	}
	if op.ID == 0 {
		return nil, fmt.Errorf("profile without id: %w", ErrMalformed)
	}
	return &op, nil
}
