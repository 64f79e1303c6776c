// Package filter is the pure, synchronous list pipeline applied to lead
// lists before they are served: column-scoped text search, per-field
// AND-composed conditions, a status filter and a stable single-key sort.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/preludehq/leaddesk/internal/entity"
)

// Condition ops.
const (
	OpContains     = "contains"
	OpNotContains  = "not_contains"
	OpEquals       = "equals"
	OpNotEquals    = "not_equals"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
	OpIsEmpty      = "is_empty"
	OpNotEmpty     = "not_empty"
	OpGreaterThan  = "greater_than"
	OpLessThan     = "less_than"
	OpGreaterEqual = "greater_equal"
	OpLessEqual    = "less_equal"
	OpBetween      = "between" // value is "min,max", numeric
	OpIn           = "in"      // value is a comma-separated membership list
	OpNotIn        = "not_in"
)

// Condition is one predicate on a single field. All conditions attached to
// the same field must pass for the record to survive.
type Condition struct {
	Op    string `json:"op"`
	Value string `json:"value,omitempty"`
}

// Options drives one pass of the pipeline.
type Options struct {
	Query         string                 `json:"query,omitempty"`
	SearchColumns map[string]bool        `json:"search_columns,omitempty"`
	Status        string                 `json:"status,omitempty"` // "all" or "" bypasses
	Conditions    map[string][]Condition `json:"conditions,omitempty"`
	SortField     string                 `json:"sort,omitempty"`
	SortOrder     string                 `json:"order,omitempty"` // asc (default) or desc
}

// DefaultSearchColumns mirrors the stored search preference defaults.
func DefaultSearchColumns() map[string]bool {
	return map[string]bool{
		"company":  true,
		"name":     true,
		"email":    true,
		"phone":    true,
		"location": true,
	}
}

// statusPriority orders statuses for sorting, hottest first.
var statusPriority = map[string]int{
	entity.StatusConverted: 7,
	entity.StatusHot:       6,
	entity.StatusQualified: 5,
	entity.StatusWarm:      4,
	entity.StatusContacted: 3,
	entity.StatusNew:       2,
	entity.StatusCold:      1,
	entity.StatusLost:      0,
}

// Apply runs the full pipeline over a copy of the input. Filters all run
// before the sort; ties keep their relative input order.
func Apply(leads []entity.Lead, opts Options) []entity.Lead {
	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Status == "" {
			l.Status = entity.StatusNew
		}
		if !matchesSearch(l, opts) {
			continue
		}
		if opts.Status != "" && opts.Status != "all" && l.Status != opts.Status {
			continue
		}
		if !matchesConditions(l, opts.Conditions) {
			continue
		}
		out = append(out, l)
	}
	sortLeads(out, opts.SortField, opts.SortOrder)
	return out
}

func matchesSearch(l entity.Lead, opts Options) bool {
	term := strings.ToLower(strings.TrimSpace(opts.Query))
	if term == "" {
		return true
	}
	cols := opts.SearchColumns
	if cols == nil {
		cols = DefaultSearchColumns()
	}
	// Only columns flagged true participate; a hit in an excluded column
	// must not match.
	for col, on := range cols {
		if !on {
			continue
		}
		if strings.Contains(strings.ToLower(fieldValue(l, col)), term) {
			return true
		}
	}
	return false
}

func matchesConditions(l entity.Lead, conds map[string][]Condition) bool {
	for field, list := range conds {
		val := fieldValue(l, field)
		for _, c := range list {
			if !evalCondition(val, c) {
				return false
			}
		}
	}
	return true
}

func evalCondition(val string, c Condition) bool {
	lv := strings.ToLower(strings.TrimSpace(val))
	cv := strings.ToLower(strings.TrimSpace(c.Value))

	switch c.Op {
	case OpContains:
		return strings.Contains(lv, cv)
	case OpNotContains:
		return !strings.Contains(lv, cv)
	case OpEquals:
		return lv == cv
	case OpNotEquals:
		return lv != cv
	case OpStartsWith:
		return strings.HasPrefix(lv, cv)
	case OpEndsWith:
		return strings.HasSuffix(lv, cv)
	case OpIsEmpty:
		return lv == ""
	case OpNotEmpty:
		return lv != ""
	case OpIn, OpNotIn:
		found := false
		for _, item := range strings.Split(cv, ",") {
			if strings.TrimSpace(item) == lv {
				found = true
				break
			}
		}
		if c.Op == OpIn {
			return found
		}
		return !found
	case OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual:
		n, ok1 := parseFloat(lv)
		b, ok2 := parseFloat(cv)
		if !ok1 || !ok2 {
			// Non-numeric or absent values fail numeric conditions, they
			// never error out.
			return false
		}
		switch c.Op {
		case OpGreaterThan:
			return n > b
		case OpLessThan:
			return n < b
		case OpGreaterEqual:
			return n >= b
		default:
			return n <= b
		}
	case OpBetween:
		parts := strings.SplitN(cv, ",", 2)
		if len(parts) != 2 {
			return false
		}
		n, ok := parseFloat(lv)
		lo, okLo := parseFloat(strings.TrimSpace(parts[0]))
		hi, okHi := parseFloat(strings.TrimSpace(parts[1]))
		if !ok || !okLo || !okHi {
			return false
		}
		return n >= lo && n <= hi
	}
	return true // unknown op never filters anything out
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func sortLeads(leads []entity.Lead, field, order string) {
	if field == "" {
		return
	}
	desc := order == "desc"
	sort.SliceStable(leads, func(i, j int) bool {
		if desc {
			return lessByField(leads[j], leads[i], field)
		}
		return lessByField(leads[i], leads[j], field)
	})
}

func lessByField(a, b entity.Lead, field string) bool {
	switch field {
	case "status":
		return statusPriority[a.Status] < statusPriority[b.Status]
	case "score":
		return scoreOf(a) < scoreOf(b)
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	case "employees_count":
		return a.EmployeesCount < b.EmployeesCount
	default:
		return strings.ToLower(fieldValue(a, field)) < strings.ToLower(fieldValue(b, field))
	}
}

func scoreOf(l entity.Lead) int {
	if l.Score == nil {
		return -1 // unscored sorts below zero
	}
	return *l.Score
}

// fieldValue resolves a column name to its comparable string form.
func fieldValue(l entity.Lead, field string) string {
	switch field {
	case "company":
		return l.Company
	case "name", "contact_name":
		if l.Name != "" {
			return l.Name
		}
		return l.ContactName
	case "email":
		return l.Email
	case "phone":
		return l.Phone
	case "website":
		return l.Website
	case "location":
		return l.Location
	case "industry":
		return l.Industry
	case "company_size":
		return l.CompanySize
	case "revenue":
		return l.Revenue
	case "employees_count":
		return strconv.Itoa(l.EmployeesCount)
	case "status":
		return l.Status
	case "source":
		return l.Source
	case "score":
		if l.Score == nil {
			return ""
		}
		return strconv.Itoa(*l.Score)
	case "tags":
		return strings.Join(l.Tags, ",")
	case "notes":
		return l.Notes
	case "created_at":
		if l.CreatedAt.IsZero() {
			return ""
		}
		return l.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return ""
}
