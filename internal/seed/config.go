// Package seed generates synthetic score submissions against a running
// GLADE instance, for smoke testing and demo data.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Tenant     string        // Tenant key submissions are posted under
	Players    int           // Number of synthetic players
	Rounds     int           // Number of consecutive rounds to fill
	FirstRound int64         // Round number the run starts at
	SkipRate   float64       // Probability a player skips a round
	Timeout    time.Duration // HTTP request timeout
}

// Submission is the JSON body posted to /api/scores.
type Submission struct {
	Player string `json:"player"`
	Text   string `json:"text"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Successful int
	Duplicate  int
	Failed     int
	StartTime  time.Time
	Duration   time.Duration
}
