package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// reserved parameter names are extracted before the remainder is treated as
// field filters.
var reserved = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
	"search": true,
}

// ParseError reports a filter value that does not match its declared operator
// structure. Handlers map it to a 400.
type ParseError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q: %s", e.Param, e.Value, e.Reason)
}

// Descriptor is the normalized form of a listing request: filters, free-text
// search, projection, sort and pagination. Built per request, never persisted.
type Descriptor struct {
	Filter And
	Search string
	Select []string
	Sort   bson.D
	Page   int
	Limit  int
}

// Build translates raw query parameters into a Descriptor. A malformed
// comparison value fails the whole request; filters are never silently
// dropped.
func Build(params url.Values) (*Descriptor, error) {
	d := &Descriptor{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		if !reserved[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, raw := range params[key] {
			cond, err := parseCondition(key, raw)
			if err != nil {
				return nil, err
			}
			d.Filter = append(d.Filter, cond)
		}
	}

	d.Search = strings.TrimSpace(params.Get("search"))

	if sel := params.Get("select"); sel != "" {
		for _, field := range strings.Split(sel, ",") {
			if field = strings.TrimSpace(field); field != "" {
				d.Select = append(d.Select, field)
			}
		}
	}

	if raw := params.Get("sort"); raw != "" {
		spec := bson.D{}
		for _, field := range strings.Split(raw, ",") {
			if field = strings.TrimSpace(field); field == "" {
				continue
			}
			if strings.HasPrefix(field, "-") {
				spec = append(spec, bson.E{Key: field[1:], Value: -1})
			} else {
				spec = append(spec, bson.E{Key: field, Value: 1})
			}
		}
		if len(spec) > 0 {
			d.Sort = spec
		}
	}

	if page, err := strconv.Atoi(params.Get("page")); err == nil && page >= 1 {
		d.Page = page
	}
	if limit, err := strconv.Atoi(params.Get("limit")); err == nil && limit >= 1 {
		d.Limit = limit
	}

	return d, nil
}

// Require ANDs an extra condition into the descriptor. Used by callers that
// scope a listing, e.g. to a category subtree.
func (d *Descriptor) Require(f Filter) {
	d.Filter = append(d.Filter, f)
}

// FilterBSON renders the filter tree, folding in the search clause when a
// term is present.
func (d *Descriptor) FilterBSON() bson.M {
	all := make(And, 0, len(d.Filter)+1)
	all = append(all, d.Filter...)
	if d.Search != "" {
		all = append(all, searchClause(d.Search))
	}
	return all.bsonM()
}

func (d *Descriptor) projection() bson.M {
	if len(d.Select) == 0 {
		return nil
	}
	proj := bson.M{"_id": 1}
	for _, field := range d.Select {
		proj[field] = 1
	}
	return proj
}

// operator tokens, longest first so gte/lte win over gt/lt.
var comparisons = []struct {
	token string
	op    Op
}{
	{"gte:", OpGte},
	{"lte:", OpLte},
	{"gt:", OpGt},
	{"lt:", OpLt},
}

func parseCondition(field, raw string) (Filter, error) {
	if payload, ok := strings.CutPrefix(raw, "in:"); ok {
		if strings.TrimSpace(payload) == "" {
			return nil, &ParseError{Param: field, Value: raw, Reason: "empty in-list"}
		}
		values := make([]any, 0)
		for _, part := range strings.Split(payload, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, coerce(part))
			}
		}
		if len(values) == 0 {
			return nil, &ParseError{Param: field, Value: raw, Reason: "empty in-list"}
		}
		return In{Field: field, Values: values}, nil
	}

	for _, c := range comparisons {
		payload, ok := strings.CutPrefix(raw, c.token)
		if !ok {
			continue
		}
		value, err := coerceOrdered(strings.TrimSpace(payload))
		if err != nil {
			return nil, &ParseError{Param: field, Value: raw, Reason: err.Error()}
		}
		return Cmp{Field: field, Op: c.op, Value: value}, nil
	}

	return Eq{Field: field, Value: coerce(raw)}, nil
}

// coerce maps a raw string to the most specific literal: integer, float,
// bool, object id, else the string itself.
func coerce(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if id, err := bson.ObjectIDFromHex(s); err == nil {
		return id
	}
	return s
}

// coerceOrdered is stricter: comparison operators only make sense against
// ordered values, so the payload must be a number or an RFC 3339 timestamp.
func coerceOrdered(s string) (any, error) {
	if s == "" {
		return nil, fmt.Errorf("missing comparison value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return nil, fmt.Errorf("comparison value must be a number or RFC 3339 timestamp")
}
