package filterexpr

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

type testMsg struct {
	Filter  string
	OrderBy string
}

func (m testMsg) GetFilter() string  { return m.Filter }
func (m testMsg) GetOrderBy() string { return m.OrderBy }

type cardParams struct {
	Deck       string
	Decks      []string
	ActiveOnly bool
	DueBefore  *time.Time
	MinReviews *int

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func cardTestSchema() ResourceSchema {
	return ResourceSchema{
		Filter: map[string]FilterField{
			"deck": {
				Kind: KindString,
				Ops:  map[Op]string{OpEQ: "Deck", OpIN: "Decks"},
			},
			"active": {
				Kind: KindBool,
				Ops:  map[Op]string{OpEQ: "ActiveOnly"},
			},
			"next_review_date": {
				Kind: KindTimestamp,
				Ops:  map[Op]string{OpLTE: "DueBefore"},
			},
			"review_count": {
				Kind: KindNumber,
				Ops:  map[Op]string{OpGTE: "MinReviews"},
			},
		},
		Order: OrderSchema{
			DefaultPrimary: "next_review_date",
			FallbackKey:    "id",
			Fields: map[string]struct{}{
				"next_review_date": {},
				"created_at":       {},
				"id":               {},
			},
		},
	}
}

func TestBindFilterConjunction(t *testing.T) {
	msg := testMsg{Filter: `deck == "default" && review_count >= 3 && active == true && next_review_date <= timestamp("2025-03-10T00:00:00Z")`}
	var params cardParams
	if err := Bind(msg, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if params.Deck != "default" || !params.ActiveOnly {
		t.Errorf("string/bool binding = %+v", params)
	}
	if params.MinReviews == nil || *params.MinReviews != 3 {
		t.Errorf("MinReviews = %v, want 3", params.MinReviews)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if params.DueBefore == nil || !params.DueBefore.Equal(want) {
		t.Errorf("DueBefore = %v, want %v", params.DueBefore, want)
	}
}

func TestBindFilterInList(t *testing.T) {
	var params cardParams
	if err := Bind(testMsg{Filter: `deck in ["core", "idioms"]`}, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if !reflect.DeepEqual(params.Decks, []string{"core", "idioms"}) {
		t.Errorf("Decks = %v", params.Decks)
	}
}

func TestBindFilterBareBoolIdent(t *testing.T) {
	var params cardParams
	if err := Bind(testMsg{Filter: `active`}, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if !params.ActiveOnly {
		t.Error("bare identifier did not bind as == true")
	}
}

func TestBindFilterRejections(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		msg    string
	}{
		{"or", `deck == "a" || deck == "b"`, "not supported"},
		{"unknown field", `front == "hello"`, "not allowed"},
		{"disallowed op", `deck >= "a"`, "not allowed"},
		{"kind mismatch", `review_count >= "three"`, "expected number"},
		{"non literal rhs", `deck == deck`, "literal"},
		{"bad timestamp", `next_review_date <= timestamp("yesterday")`, "RFC3339"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var params cardParams
			err := Bind(testMsg{Filter: tc.filter}, &params, cardTestSchema())
			if err == nil || !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("Bind(%q) = %v, want error containing %q", tc.filter, err, tc.msg)
			}
		})
	}
}

func TestBindOrderByDefaults(t *testing.T) {
	var params cardParams
	if err := Bind(testMsg{}, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if params.PrimaryKey != "next_review_date" || params.SecondaryKey != "id" {
		t.Errorf("defaults = %q/%q", params.PrimaryKey, params.SecondaryKey)
	}
	if params.PrimaryDesc || params.SecondaryDesc {
		t.Error("defaults must be ascending")
	}
}

func TestBindOrderByExplicit(t *testing.T) {
	var params cardParams
	if err := Bind(testMsg{OrderBy: "created_at desc, next_review_date"}, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if params.PrimaryKey != "created_at" || !params.PrimaryDesc {
		t.Errorf("primary = %q desc=%v", params.PrimaryKey, params.PrimaryDesc)
	}
	if params.SecondaryKey != "next_review_date" || params.SecondaryDesc {
		t.Errorf("secondary = %q desc=%v", params.SecondaryKey, params.SecondaryDesc)
	}
}

func TestBindOrderBySingleKeyGetsFallback(t *testing.T) {
	var params cardParams
	if err := Bind(testMsg{OrderBy: "created_at"}, &params, cardTestSchema()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if params.SecondaryKey != "id" {
		t.Errorf("secondary = %q, want fallback id", params.SecondaryKey)
	}
}

func TestBindOrderByRejections(t *testing.T) {
	cases := []struct {
		name    string
		orderBy string
	}{
		{"unknown key", "ease_factor"},
		{"bad direction", "created_at upward"},
		{"duplicate key", "created_at, created_at desc"},
		{"too many keys", "created_at, id, next_review_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var params cardParams
			if err := Bind(testMsg{OrderBy: tc.orderBy}, &params, cardTestSchema()); err == nil {
				t.Errorf("Bind(order_by=%q) succeeded, want error", tc.orderBy)
			}
		})
	}
}
