// Package reconcile derives the per-image verdict from the outcomes of
// independent recognition sources.
package reconcile

import (
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/plate"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Verdict is the aggregate judgment over one image's outcomes.
type Verdict struct {
	VehicleDetected bool
	Consistency     model.Consistency
	// PlateDistance is the largest edit distance between two reported
	// plates. It never influences Consistency.
	PlateDistance int
}

// Reconcile computes the verdict for outcomes. It is pure.
func Reconcile(outcomes []model.RecognitionOutcome) Verdict {
	plates := Plates(outcomes)
	return Verdict{
		VehicleDetected: VehicleDetected(outcomes),
		Consistency:     Consistency(plates),
		PlateDistance:   MaxDistance(plates),
	}
}

// VehicleDetected is false only when at least one vision source was queried
// and every vision source explicitly reported that the image is not a
// vehicle. One vehicle-positive source outweighs any number of dissenters.
func VehicleDetected(outcomes []model.RecognitionOutcome) bool {
	vision := 0
	for _, o := range outcomes {
		if !o.Source().IsVision() {
			continue
		}
		vision++
		if o.Status() != model.StatusNotAVehicle {
			return true
		}
	}
	return vision == 0
}

// Plates returns the non-null plates of outcomes, normalized, in outcome
// order.
func Plates(outcomes []model.RecognitionOutcome) []string {
	var out []string
	for _, o := range outcomes {
		if !o.HasPlate() {
			continue
		}
		if p := plate.Normalize(o.Plate().String); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Consistency compares normalized plates by strict equality.
func Consistency(plates []string) model.Consistency {
	if len(plates) < 2 {
		return model.Indeterminate
	}
	for _, p := range plates[1:] {
		if !plate.Equal(p, plates[0]) {
			return model.Inconsistent
		}
	}
	return model.Consistent
}

var distanceOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// MaxDistance is the maximum pairwise Levenshtein distance, in runes,
// between plates; 0 for fewer than two plates.
func MaxDistance(plates []string) int {
	longest := 0
	for i := 0; i < len(plates); i++ {
		for j := i + 1; j < len(plates); j++ {
			d := levenshtein.DistanceForStrings([]rune(plates[i]), []rune(plates[j]), distanceOptions)
			if d > longest {
				longest = d
			}
		}
	}
	return longest
}
