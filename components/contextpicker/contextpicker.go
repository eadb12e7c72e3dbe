// components/contextpicker/contextpicker.go
//
// Context picker component – read side of the caller's widget context
// registry, plus the write path for widgets that render client-side.
//
// Endpoints
// ---------
//
//	GET    /api/context[?route=/dashboard]        exposed entries, route scoped
//	GET    /api/context/addable?route&active=a,b   entries not yet active
//	GET    /api/context/{id}                       one entry or 404
//	PUT    /api/context/{id}                       {name, description, data}
//	DELETE /api/context/{id}                       204
//
// PUT and DELETE answer 409 for IDs of catalogue widgets; those entries
// follow page mounts.  "addable" is reserved by the complement route.
//
// Selecting an entry never mutates the registry; the chat feature that
// receives the selection lives elsewhere.
//------------------------------------------------------------------------------

package contextpicker

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/respond"
	"github.com/yanizio/pawnboard/internal/widgetctx"
)

// maxPayload bounds PUT bodies.
const maxPayload = 1 << 20

// reservedID is shadowed by the static complement route.
const reservedID = "addable"

var _ component.Component = (*Comp)(nil)

// Comp implements component.Component; all state lives on the board.
type Comp struct{}

func (c *Comp) Name() string                { return "context" }
func (c *Comp) Init(_ component.Env) error { return nil }

func (c *Comp) Routes(r chi.Router) {
	r.Get("/api/context", c.list)
	r.Get("/api/context/addable", c.addable)
	r.Get("/api/context/{id}", c.get)
	r.Put("/api/context/{id}", c.put)
	r.Delete("/api/context/{id}", c.del)
}

func init() { component.Register(&Comp{}) }

func (c *Comp) list(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	var entries []widgetctx.Entry
	if route := r.URL.Query().Get("route"); route != "" {
		entries = b.Registry.ForRoute(route)
	} else {
		entries = b.Registry.All()
	}
	respond.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (c *Comp) addable(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	route := q.Get("route")
	if route == "" {
		respond.Error(w, http.StatusBadRequest, "route is required")
		return
	}

	var active []string
	for _, v := range q["active"] {
		active = append(active, strings.Split(v, ",")...)
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"route":   route,
		"entries": widgetctx.Addable(b.Registry, route, active),
	})
}

func (c *Comp) get(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	e, ok := b.Registry.Get(chi.URLParam(r, "id"))
	if !ok {
		respond.Status(w, http.StatusNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

type putBody struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

func (c *Comp) put(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if id == reservedID {
		respond.Error(w, http.StatusBadRequest, "id "+reservedID+" is reserved")
		return
	}

	var body putBody
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPayload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	bind, err := b.Binding(id, body.Name, body.Description)
	if errors.Is(err, board.ErrServerWidget) {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respond.Status(w, http.StatusInternalServerError)
		return
	}
	if err := bind.Sync(body.Data); err != nil {
		if errors.Is(err, widgetctx.ErrInvalidPayload) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Status(w, http.StatusInternalServerError)
		return
	}

	e, ok := b.Registry.Get(id)
	if !ok {
		// Null data: the widget has nothing to contribute.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

func (c *Comp) del(w http.ResponseWriter, r *http.Request) {
	b := board.FromContext(r.Context())
	if b == nil {
		respond.Status(w, http.StatusUnauthorized)
		return
	}
	if err := b.Release(chi.URLParam(r, "id")); err != nil {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
