package query_test

import (
	"net/url"
	"strings"
	"testing"

	qs "github.com/google/go-querystring/query"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/query"
)

var testSchema = query.Schema{
	Table: "tours",
	Columns: map[string]query.Column{
		"name":       {Name: "name", Kind: query.String},
		"price":      {Name: "price", Kind: query.Float},
		"duration":   {Name: "duration", Kind: query.Int},
		"difficulty": {Name: "difficulty", Kind: query.String},
		"createdAt":  {Name: "created_at", Kind: query.Time},
	},
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}, {Field: "name"}},
}

func TestParseSeparatesControlKeysFromFilters(t *testing.T) {
	// Build the query string the way an API client would.
	params, err := qs.Values(struct {
		PriceGte string `url:"price[gte]"`
		Sort     string `url:"sort"`
		Limit    int    `url:"limit"`
		Page     int    `url:"page"`
	}{PriceGte: "100", Sort: "-price", Limit: 2, Page: 1})
	if err != nil {
		t.Fatalf("encode query: %v", err)
	}

	opts := query.Parse(params)

	if len(opts.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d: %+v", len(opts.Filters), opts.Filters)
	}
	f := opts.Filters[0]
	if f.Field != "price" || f.Op != query.OpGte || f.Value != "100" {
		t.Errorf("unexpected filter: %+v", f)
	}

	if opts.Limit != 2 || opts.Page != 1 {
		t.Errorf("expected limit=2 page=1, got limit=%d page=%d", opts.Limit, opts.Page)
	}
	if len(opts.Sort) != 1 || opts.Sort[0].Field != "price" || !opts.Sort[0].Desc {
		t.Errorf("unexpected sort: %+v", opts.Sort)
	}
}

func TestParseDefaults(t *testing.T) {
	opts := query.Parse(url.Values{})

	if opts.Page != 1 {
		t.Errorf("expected page 1, got %d", opts.Page)
	}
	if opts.Limit != query.DefaultLimit {
		t.Errorf("expected limit %d, got %d", query.DefaultLimit, opts.Limit)
	}
	if opts.Skip() != 0 {
		t.Errorf("expected skip 0, got %d", opts.Skip())
	}
}

func TestParseCapsLimit(t *testing.T) {
	opts := query.Parse(url.Values{"limit": {"100000"}})
	if opts.Limit != query.MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", query.MaxLimit, opts.Limit)
	}
}

func TestParseIgnoresBadPagination(t *testing.T) {
	opts := query.Parse(url.Values{"page": {"-3"}, "limit": {"abc"}})
	if opts.Page != 1 || opts.Limit != query.DefaultLimit {
		t.Errorf("expected defaults, got page=%d limit=%d", opts.Page, opts.Limit)
	}
}

func TestParseUnknownOpSuffixFallsBackToEq(t *testing.T) {
	opts := query.Parse(url.Values{"price[regex]": {"1"}})
	if len(opts.Filters) != 1 || opts.Filters[0].Op != query.OpEq {
		t.Fatalf("expected eq fallback, got %+v", opts.Filters)
	}
}

func TestBuildSelectParameterizesFilters(t *testing.T) {
	opts := query.Parse(url.Values{
		"price[gte]": {"100"},
		"duration":   {"5"},
	})

	sql, args, err := testSchema.BuildSelect("*", []string{"private_tour = false"}, opts)
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}

	if !strings.Contains(sql, "private_tour = false") {
		t.Errorf("standing predicate missing from %q", sql)
	}
	if !strings.Contains(sql, "$1") || !strings.Contains(sql, "$2") {
		t.Errorf("filters not parameterized: %q", sql)
	}
	if strings.Contains(sql, "100") || strings.Contains(sql, "'5'") {
		t.Errorf("filter values leaked into SQL: %q", sql)
	}

	// LIMIT and OFFSET ride as the final two parameters.
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d: %v", len(args), args)
	}
	for _, arg := range args[:2] {
		switch arg.(type) {
		case float64, int64:
		default:
			t.Errorf("expected typed filter arg, got %T", arg)
		}
	}
}

func TestBuildSelectRejectsUnknownField(t *testing.T) {
	opts := query.Parse(url.Values{"passwordHash": {"x"}})

	_, _, err := testSchema.BuildSelect("*", nil, opts)
	if err == nil {
		t.Fatal("expected error for unknown filter field")
	}
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildSelectRejectsUnknownSortField(t *testing.T) {
	opts := query.Parse(url.Values{"sort": {"secretField"}})

	if _, _, err := testSchema.BuildSelect("*", nil, opts); err == nil {
		t.Fatal("expected error for unknown sort field")
	}
}

func TestBuildSelectRejectsBadTypedValue(t *testing.T) {
	opts := query.Parse(url.Values{"price[lt]": {"cheap"}})

	_, _, err := testSchema.BuildSelect("*", nil, opts)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for non-numeric price, got %v", err)
	}
}

func TestBuildSelectAppliesDefaultSort(t *testing.T) {
	sql, _, err := testSchema.BuildSelect("*", nil, query.Parse(url.Values{}))
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	if !strings.Contains(sql, "ORDER BY created_at DESC, name") {
		t.Errorf("default sort missing: %q", sql)
	}
}

func TestBuildSelectCallerSortOverridesDefault(t *testing.T) {
	sql, _, err := testSchema.BuildSelect("*", nil, query.Parse(url.Values{"sort": {"price"}}))
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	if !strings.Contains(sql, "ORDER BY price") || strings.Contains(sql, "created_at DESC") {
		t.Errorf("caller sort not applied: %q", sql)
	}
}

func TestBuildSelectExtraFiltersScopeTheQuery(t *testing.T) {
	sql, args, err := testSchema.BuildSelect("*", nil, query.Parse(url.Values{}),
		query.Filter{Field: "duration", Op: query.OpEq, Value: int64(7)})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	if !strings.Contains(sql, "duration = $1") {
		t.Errorf("scope filter missing: %q", sql)
	}
	if args[0] != int64(7) {
		t.Errorf("expected scope arg 7, got %v", args[0])
	}
}
