// components/session/session.go
//
// Session component – board session lifecycle.
//
// Endpoints
// ---------
//
//	POST   /api/session   open (or reuse) the caller's board, set the cookie
//	GET    /api/session   describe the caller's board
//	DELETE /api/session   drop the board and expire the cookie
//
// board.Attach has already opened the board by the time these run; POST is
// the explicit "log in to the dashboard" call the SPA makes after sign-in.
//------------------------------------------------------------------------------

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/auth"
	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/respond"
	sess "github.com/yanizio/pawnboard/internal/session"
)

var _ component.Component = (*Component)(nil)

// Component owns the /api/session endpoints.
type Component struct {
	boards *board.Cache
}

func (c *Component) Name() string { return "session" }

func (c *Component) Init(env component.Env) error {
	c.boards = env.Boards()
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Post("/api/session", c.describe)
	r.Get("/api/session", c.describe)
	r.Delete("/api/session", c.drop)
}

func init() { component.Register(&Component{}) }

type sessionView struct {
	SessionID string   `json:"sessionId"`
	Operator  string   `json:"operator"`
	BranchID  int      `json:"branchId"`
	Roles     []string `json:"roles"`
	Pages     []string `json:"pages"`
}

func (c *Component) describe(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	op, ok := auth.OperatorFrom(r.Context())
	if b == nil || !ok {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	respond.JSON(w, http.StatusOK, sessionView{
		SessionID: b.SessionID,
		Operator:  op.Name,
		BranchID:  op.BranchID,
		Roles:     op.Roles,
		Pages:     b.MountedPages(),
	})
}

func (c *Component) drop(w http.ResponseWriter, r *http.Request) {
	if b := board.FromContext(r.Context()); b != nil {
		c.boards.Drop(b.SessionID)
		zap.L().Info("session closed",
			zap.String("session", b.SessionID),
			zap.Int64("operator", b.OperatorID))
	}
	sess.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
