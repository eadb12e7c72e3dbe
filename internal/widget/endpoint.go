package widget

import (
	"context"
	"fmt"
	"net/url"

	"github.com/yanizio/pawnboard/internal/filter"
)

// Endpoint is a Widget backed by one backend GET whose body is shown as-is.
// When Filtered is set the request carries branchId and date.
type Endpoint struct {
	Key      string
	Label    string
	Desc     string
	PageName string
	Path     string
	Filtered bool
	Extra    url.Values // fixed query params, e.g. limit
}

var _ Widget = (*Endpoint)(nil)

func (e *Endpoint) ID() string          { return e.Key }
func (e *Endpoint) Name() string        { return e.Label }
func (e *Endpoint) Description() string { return e.Desc }
func (e *Endpoint) Page() string        { return e.PageName }

// Fetch calls the backend and returns the raw JSON document.
func (e *Endpoint) Fetch(ctx context.Context, api Fetcher, f filter.Filter) (any, error) {
	q := url.Values{}
	if e.Filtered {
		q = f.Query()
	}
	for k, vs := range e.Extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	raw, err := api.Get(ctx, e.Path, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Key, err)
	}
	return raw, nil
}
