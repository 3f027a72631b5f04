// Package srs implements the SM-2 spaced-repetition parameter update.
package srs

import (
	"math"
	"time"

	"github.com/eslsoft/studycore/internal/entity"
)

// Quality grades a recall attempt on the SM-2 scale.
type Quality int

const (
	QualityBlackout    Quality = 0 // completely forgotten
	QualityBarely      Quality = 1 // barely remembered
	QualityImpression  Quality = 2 // some impression
	QualityBasic       Quality = 3 // basically remembered
	QualityClear       Quality = 4 // clearly remembered
	QualityPerfect     Quality = 5 // perfectly remembered
	passThreshold              = QualityBasic
	firstPassInterval          = 1
	secondPassInterval         = 6
)

var qualityLabels = map[Quality]string{
	QualityBlackout:   "completely forgotten",
	QualityBarely:     "barely remembered",
	QualityImpression: "some impression",
	QualityBasic:      "basically remembered",
	QualityClear:      "clearly remembered",
	QualityPerfect:    "perfectly remembered",
}

// Valid reports whether the grade is on the 0..5 scale.
func (q Quality) Valid() bool { return q >= QualityBlackout && q <= QualityPerfect }

// Pass reports whether the grade counts as successful recall.
func (q Quality) Pass() bool { return q >= passThreshold }

// Label returns the user-visible description of the grade. The numeric
// code is the contract; the text is presentation only.
func (q Quality) Label() string { return qualityLabels[q] }

// State is the scheduling snapshot of a card before an update.
type State struct {
	IntervalDays int
	Ease         float64
	ReviewCount  int // reviews completed before this one
}

// Result is the scheduling state produced by an update.
type Result struct {
	IntervalDays int
	Ease         float64
	NextReview   time.Time
}

// Update applies the SM-2 formula to a snapshot. today must already be
// the owner-local calendar date; the next review date is derived from it
// and never read back.
func Update(prev State, quality Quality, today time.Time) (Result, error) {
	if !quality.Valid() {
		return Result{}, entity.ErrInvalidQuality
	}

	var interval int
	var ease float64
	if !quality.Pass() {
		// Lapse: restart the interval and penalize ease.
		interval = firstPassInterval
		ease = prev.Ease - 0.2
	} else {
		switch prev.ReviewCount {
		case 0:
			interval = firstPassInterval
		case 1:
			interval = secondPassInterval
		default:
			interval = int(math.Floor(float64(prev.IntervalDays) * prev.Ease))
		}
		miss := float64(QualityPerfect - quality)
		ease = prev.Ease + (0.1 - miss*(0.08+miss*0.02))
	}
	if ease < entity.MinEase {
		ease = entity.MinEase
	}
	if interval < 1 {
		interval = 1
	}

	return Result{
		IntervalDays: interval,
		Ease:         ease,
		NextReview:   entity.DateOf(today).AddDate(0, 0, interval),
	}, nil
}
