// Package query translates untyped request parameters into filtered, sorted,
// projected, paginated reads against the resource stores.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trailpeak/tours-api/internal/domain"
)

type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpGt  Op = "gt"
	OpLte Op = "lte"
	OpLt  Op = "lt"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGte: ">=",
	OpGt:  ">",
	OpLte: "<=",
	OpLt:  "<",
}

type Filter struct {
	Field string
	Op    Op
	Value any
}

type SortKey struct {
	Field string
	Desc  bool
}

type Options struct {
	Filters []Filter
	Sort    []SortKey
	Fields  []string
	Page    int
	Limit   int
}

const (
	DefaultLimit = 20
	// MaxLimit caps caller-supplied page sizes so a single request cannot
	// scan the whole table.
	MaxLimit = 100
)

// control keys stripped before the remaining parameters become filters
var controlKeys = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

// Parse builds Options from a request's query string. Comparison operators
// arrive as suffix tokens: price[gte]=100.
func Parse(values url.Values) Options {
	opts := Options{Page: 1, Limit: DefaultLimit}

	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = min(n, MaxLimit)
		}
	}

	if v := values.Get("sort"); v != "" {
		for _, token := range strings.Split(v, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if strings.HasPrefix(token, "-") {
				opts.Sort = append(opts.Sort, SortKey{Field: token[1:], Desc: true})
			} else {
				opts.Sort = append(opts.Sort, SortKey{Field: token})
			}
		}
	}
	if v := values.Get("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Fields = append(opts.Fields, f)
			}
		}
	}

	for key, vals := range values {
		if controlKeys[key] || len(vals) == 0 {
			continue
		}
		field, op := splitOpSuffix(key)
		for _, v := range vals {
			opts.Filters = append(opts.Filters, Filter{Field: field, Op: op, Value: v})
		}
	}

	return opts
}

func (o Options) Skip() int {
	return (o.Page - 1) * o.Limit
}

func splitOpSuffix(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open == -1 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	field := key[:open]
	switch op := Op(key[open+1 : len(key)-1]); op {
	case OpGte, OpGt, OpLte, OpLt:
		return field, op
	default:
		return field, OpEq
	}
}

// Kind drives the conversion of string filter values into typed SQL args.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Time
)

type Column struct {
	Name string
	Kind Kind
}

// Schema maps a resource's exposed field names onto its table columns.
// Fields not listed here can be neither filtered nor sorted by callers.
// DefaultSort applies when the request carries no sort parameter.
type Schema struct {
	Table       string
	Columns     map[string]Column
	DefaultSort []SortKey
}

func (s Schema) column(field string) (Column, error) {
	col, ok := s.Columns[field]
	if !ok {
		return Column{}, domain.ErrValidation(fmt.Sprintf("Cannot filter or sort by %q", field), field)
	}
	return col, nil
}

func (s Schema) convert(col Column, field string, value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return value, nil
	}
	switch col.Kind {
	case Int:
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("Invalid %s: %s", field, str), field)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("Invalid %s: %s", field, str), field)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("Invalid %s: %s", field, str), field)
		}
		return b, nil
	case Time:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, str); err == nil {
				return t, nil
			}
		}
		return nil, domain.ErrValidation(fmt.Sprintf("Invalid %s: %s", field, str), field)
	default:
		return str, nil
	}
}

// BuildSelect composes the full SELECT for a list read. standing carries the
// store's non-negotiable predicates (record visibility) as literal SQL;
// caller filters are parameterized and type-checked against the schema.
func (s Schema) BuildSelect(selectList string, standing []string, opts Options, extra ...Filter) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	conds = append(conds, standing...)

	for _, f := range append(append([]Filter{}, opts.Filters...), extra...) {
		col, err := s.column(f.Field)
		if err != nil {
			return "", nil, err
		}
		val, err := s.convert(col, f.Field, f.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s %s $%d", col.Name, sqlOps[f.Op], len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList, s.Table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	sortKeys := opts.Sort
	if len(sortKeys) == 0 {
		sortKeys = s.DefaultSort
	}
	orderBy := make([]string, 0, len(sortKeys))
	for _, key := range sortKeys {
		col, err := s.column(key.Field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy, col.Name+" "+dir)
	}
	if len(orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderBy, ", "))
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	args = append(args, opts.Skip())
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	return b.String(), args, nil
}
