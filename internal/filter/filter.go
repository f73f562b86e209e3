package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tinytelemetry/flowdeck/internal/model"
)

// AllMethods is the method sentinel that matches every flow.
const AllMethods = "ALL"

// StatusFilter selects flows by response status bucket.
type StatusFilter string

const (
	StatusAll  StatusFilter = "ALL"
	Status2xx  StatusFilter = "2xx"
	Status3xx  StatusFilter = "3xx"
	Status4xx  StatusFilter = "4xx"
	Status5xx  StatusFilter = "5xx"
	StatusNone StatusFilter = "none"
)

// StatusFilters lists the filters in display order.
var StatusFilters = []StatusFilter{StatusAll, Status2xx, Status3xx, Status4xx, Status5xx, StatusNone}

// ParseStatusFilter accepts ALL, 2xx..5xx and none (case-insensitive).
func ParseStatusFilter(s string) (StatusFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusAll, nil
	}
	for _, f := range StatusFilters {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// Label is the text shown in the filter bar.
func (f StatusFilter) Label() string {
	switch f {
	case StatusAll:
		return "all statuses"
	case StatusNone:
		return "no status"
	}
	return string(f)
}

// Criteria is the active filter set. The zero value matches everything.
type Criteria struct {
	Search string
	Method string
	Status StatusFilter
}

// DefaultCriteria matches every flow.
func DefaultCriteria() Criteria {
	return Criteria{Method: AllMethods, Status: StatusAll}
}

// IsDefault reports whether the criteria match every flow.
func (c Criteria) IsDefault() bool {
	return strings.TrimSpace(c.Search) == "" && c.methodAll() && c.statusAll()
}

func (c Criteria) methodAll() bool {
	return c.Method == "" || c.Method == AllMethods
}

func (c Criteria) statusAll() bool {
	return c.Status == "" || c.Status == StatusAll
}

// Visible returns the flows that pass every predicate, in input order.
func Visible(flows []model.Flow, c Criteria) []model.Flow {
	query := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]model.Flow, 0, len(flows))
	for _, f := range flows {
		if c.matches(f, query) {
			out = append(out, f)
		}
	}
	return out
}

// Matches reports whether a single flow passes the criteria.
func (c Criteria) Matches(f model.Flow) bool {
	return c.matches(f, strings.ToLower(strings.TrimSpace(c.Search)))
}

func (c Criteria) matches(f model.Flow, query string) bool {
	return c.matchesMethod(f) && MatchesStatus(c.Status, f.Status) && matchesText(f, query)
}

func (c Criteria) matchesMethod(f model.Flow) bool {
	return c.methodAll() || f.Method == c.Method
}

// MatchesStatus applies a status filter to an optional status.
func MatchesStatus(filter StatusFilter, status *int) bool {
	switch filter {
	case "", StatusAll:
		return true
	case StatusNone:
		return status == nil
	}
	if status == nil {
		return false
	}
	return Bucket(status) == filter
}

func matchesText(f model.Flow, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.URL), query)
}

// Bucket classifies a status into exactly one non-ALL filter. Statuses below
// 200 belong to no numeric bucket and are reported as StatusAll.
func Bucket(status *int) StatusFilter {
	if status == nil {
		return StatusNone
	}
	s := *status
	switch {
	case s >= 500:
		return Status5xx
	case s >= 400:
		return Status4xx
	case s >= 300:
		return Status3xx
	case s >= 200:
		return Status2xx
	}
	return StatusAll
}

// Methods returns ALL followed by the sorted distinct methods in flows.
func Methods(flows []model.Flow) []string {
	seen := make(map[string]struct{})
	for _, f := range flows {
		if f.Method != "" {
			seen[f.Method] = struct{}{}
		}
	}
	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return append([]string{AllMethods}, methods...)
}

// IDs extracts flow ids in order.
func IDs(flows []model.Flow) []model.FlowID {
	ids := make([]model.FlowID, len(flows))
	for i, f := range flows {
		ids[i] = f.ID
	}
	return ids
}

// NextMethod cycles through methods by step, wrapping around. An unknown
// current value restarts from ALL.
func NextMethod(methods []string, current string, step int) string {
	if len(methods) == 0 {
		return AllMethods
	}
	idx := -1
	for i, m := range methods {
		if m == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return methods[0]
	}
	n := len(methods)
	return methods[((idx+step)%n+n)%n]
}

// NextStatusFilter cycles through StatusFilters by step.
func NextStatusFilter(current StatusFilter, step int) StatusFilter {
	idx := 0
	for i, f := range StatusFilters {
		if f == current {
			idx = i
			break
		}
	}
	n := len(StatusFilters)
	return StatusFilters[((idx+step)%n+n)%n]
}
