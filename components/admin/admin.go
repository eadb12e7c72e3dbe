// components/admin/admin.go
//
// Admin component – read-only view over live boards for branch managers.
//
//	GET /api/admin/boards   admin or manager role only
//
// Uses acl.RequireRole; roles come from the backend operator profile.

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pawnboard/internal/acl"
	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/respond"
)

var _ component.Component = (*Comp)(nil)

// Comp lists live boards and the route table in force.
type Comp struct {
	boards *board.Cache
}

func (c *Comp) Name() string { return "admin" }

func (c *Comp) Init(env component.Env) error {
	c.boards = env.Boards()
	return nil
}

func (c *Comp) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole("admin", "manager"))
		r.Get("/api/admin/boards", c.listBoards)
	})
}

func init() { component.Register(&Comp{}) }

func (c *Comp) listBoards(w http.ResponseWriter, r *http.Request) {
	stats := c.boards.Stats()
	if stats == nil {
		stats = []board.Snapshot{}
	}
	policy := c.boards.Policy()
	respond.JSON(w, http.StatusOK, map[string]any{
		"boards":       stats,
		"count":        len(stats),
		"routes":       policy.Prefixes(),
		"strictRoutes": policy.Strict(),
	})
}
