package repository

import (
	"github.com/eslsoft/studycore/pkg/filterexpr"
)

// CardSchema whitelists the filter and order_by surface of card list
// queries. Filter fields bind onto repository.ListCardQuery.
var CardSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"deck": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Deck",
				filterexpr.OpIN: "Decks",
			},
		},
		"active": {
			Kind: filterexpr.KindBool,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "ActiveOnly",
			},
		},
		"next_review_date": {
			Kind: filterexpr.KindTimestamp,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpLTE: "DueBefore",
			},
		},
		"review_count": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "MinReviews",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: "next_review_date",
		FallbackKey:    "id",
		Fields: map[string]struct{}{
			"next_review_date": {},
			"created_at":       {},
			"updated_at":       {},
			"ease_factor":      {},
			"interval_days":    {},
			"review_count":     {},
			"deck":             {},
			"id":               {},
		},
	},
}
