package repository

import "time"

// Query represents one asked question and what came back.
type Query struct {
	ID          string
	AskedAt     time.Time
	ImageName   string
	ImageSHA256 string
	Question    string
	Label       *string
	Score       *float64
	Answer      string
	Failed      bool
}
