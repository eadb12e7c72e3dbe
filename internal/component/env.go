package component

import (
	"time"

	"github.com/yanizio/pawnboard/internal/board"
)

// Env exposes shared runtime services to Components during Init without
// importing cmd/web.
type Env interface {
	Boards() *board.Cache
	Location() *time.Location
	Now() time.Time
}

// StaticEnv is the plain Env implementation used by cmd/web and tests.
type StaticEnv struct {
	Cache *board.Cache
	Zone  *time.Location
	Clock func() time.Time
}

func (e StaticEnv) Boards() *board.Cache { return e.Cache }

func (e StaticEnv) Location() *time.Location {
	if e.Zone == nil {
		return time.Local
	}
	return e.Zone
}

func (e StaticEnv) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}
