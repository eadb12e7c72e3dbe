// components/pages/pages.go
//
// Pages component – mounts and unmounts dashboard pages for the caller's
// board.
//
// Endpoints
// ---------
//
//	GET    /api/pages                               page → widget catalogue
//	GET    /api/pages/{page}/widgets?branchId&date  mount, returns payloads
//	DELETE /api/pages/{page}/widgets                unmount
//
// A mount always answers 200 once the filter is valid; widgets that failed
// carry an "error" string and contribute nothing to the context registry.
//------------------------------------------------------------------------------

package pages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/filter"
	"github.com/yanizio/pawnboard/internal/respond"
	"github.com/yanizio/pawnboard/internal/widget"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves page mount endpoints.
type Component struct {
	env component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "pages" }

// Init keeps the runtime env for filter defaults.
func (c *Component) Init(env component.Env) error {
	c.env = env
	return nil
}

// Routes registers the page endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/api/pages", c.handleCatalogue)
	r.Get("/api/pages/{page}/widgets", c.handleMount)
	r.Delete("/api/pages/{page}/widgets", c.handleUnmount)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type widgetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *Component) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	out := map[string][]widgetInfo{}
	for _, p := range widget.Pages() {
		for _, wd := range widget.ForPage(p) {
			out[p] = append(out[p], widgetInfo{wd.ID(), wd.Name(), wd.Description()})
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"pages": out})
}

func (c *Component) handleMount(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}

	f, err := filter.Parse(r.URL.Query(), c.env.Location(), c.env.Now())
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page := chi.URLParam(r, "page")
	results, err := b.Mount(r.Context(), page, f)
	if errors.Is(err, board.ErrUnknownPage) {
		respond.Error(w, http.StatusNotFound, "unknown page "+page)
		return
	}
	if err != nil {
		respond.Status(w, http.StatusInternalServerError)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"page":    page,
		"filter":  f,
		"widgets": results,
	})
}

func (c *Component) handleUnmount(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	page := chi.URLParam(r, "page")
	if err := b.Unmount(page); errors.Is(err, board.ErrUnknownPage) {
		respond.Error(w, http.StatusNotFound, "unknown page "+page)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
