package metrics

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Filter selects metrics. Zero fields match everything.
type Filter struct {
	Op       string
	Provider string
	Model    string
	After    time.Time
	Before   time.Time
	Success  *bool // nil = any, true = success only, false = errors only
}

func (f Filter) matches(m Metric) bool {
	if f.Op != "" && m.Op != f.Op {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Model != "" && m.Model != f.Model {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// ParseFilter reads op, provider, model, success, after and before from
// URL query values. Times are RFC 3339.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Op:       q.Get("op"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
	}
	if s := q.Get("success"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return f, fmt.Errorf("invalid success %q", s)
		}
		f.Success = &b
	}
	for key, dst := range map[string]*time.Time{"after": &f.After, "before": &f.Before} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("invalid %s %q: want RFC 3339", key, s)
		}
		*dst = t
	}
	return f, nil
}

// Values encodes f as URL query values. It is the inverse of ParseFilter.
func (f Filter) Values() url.Values {
	q := url.Values{}
	if f.Op != "" {
		q.Set("op", f.Op)
	}
	if f.Provider != "" {
		q.Set("provider", f.Provider)
	}
	if f.Model != "" {
		q.Set("model", f.Model)
	}
	if f.Success != nil {
		q.Set("success", strconv.FormatBool(*f.Success))
	}
	if !f.After.IsZero() {
		q.Set("after", f.After.Format(time.RFC3339))
	}
	if !f.Before.IsZero() {
		q.Set("before", f.Before.Format(time.RFC3339))
	}
	return q
}
