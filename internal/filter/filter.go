// internal/filter/filter.go
//
// Page filter: the branch and business date an operator is looking at.
//
// Context
// -------
// Every analytics widget is keyed by (branchId, date).  The page-level
// control sends both as query parameters; this package parses them,
// defaults the date to "today" in the shop's time zone, and validates the
// result with go-playground/validator.
//
// Notes
// -----
//   - Dates are plain YYYY-MM-DD strings; the backend owns calendar logic.
//   - Oxford commas, two spaces after periods.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for business dates.
const DateLayout = "2006-01-02"

// ErrInvalid wraps every parse or validation failure.
var ErrInvalid = errors.New("invalid filter")

var v = validator.New()

// Filter selects the data a page shows.
type Filter struct {
	BranchID int    `json:"branchId" validate:"required,gt=0"`
	Date     string `json:"date"     validate:"required,datetime=2006-01-02"`
}

// Parse reads branchId and date from q.  A missing date becomes today in
// loc as seen at now.
func Parse(q url.Values, loc *time.Location, now time.Time) (Filter, error) {
	var f Filter

	raw := strings.TrimSpace(q.Get("branchId"))
	if raw == "" {
		return f, fmt.Errorf("%w: branchId is required", ErrInvalid)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return f, fmt.Errorf("%w: branchId %q is not a number", ErrInvalid, raw)
	}
	f.BranchID = id

	f.Date = strings.TrimSpace(q.Get("date"))
	if f.Date == "" {
		if loc == nil {
			loc = time.Local
		}
		f.Date = now.In(loc).Format(DateLayout)
	}

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate checks field constraints.
func (f Filter) Validate() error {
	if err := v.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Query renders f back into the backend's query format.
func (f Filter) Query() url.Values {
	q := url.Values{}
	q.Set("branchId", strconv.Itoa(f.BranchID))
	q.Set("date", f.Date)
	return q
}

func (f Filter) String() string { return fmt.Sprintf("branch=%d date=%s", f.BranchID, f.Date) }
