// Package batchrun processes a directory of images through the service and
// writes the comparison history as CSV.
package batchrun

import "time"

// Config holds configuration for one batch run.
type Config struct {
	Dir             string // Directory scanned for images
	Output          string // CSV path; empty means the dated default name
	PremiumPassword string // Unlocks the premium tier when set
	Verbose         bool   // Print every outcome message
}

// Stats summarizes a run.
type Stats struct {
	Images        int
	Consistent    int
	Inconsistent  int
	Indeterminate int
	NoVehicle     int
	AllFailed     int
	Output        string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
