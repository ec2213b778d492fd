package vqa

import (
	"errors"
	"fmt"
)

// FormatResult renders the best prediction the way the answer panel shows it.
func FormatResult(r Result) string {
	return fmt.Sprintf("%s (Confidence: %.2f)", r.Best.Label, r.Best.Score)
}

// FormatError renders a failed exchange as answer text.
func FormatError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "Error from API: " + apiErr.Message
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return fmt.Sprintf("Error processing API response: %v. Response text: %s", respErr.Err, respErr.Raw)
	}
	if errors.Is(err, ErrNoAPIKey) {
		return MissingKeyMessage
	}
	return "Error contacting API: " + err.Error()
}

// Describe returns the single line shown under "AI Answer:".
func Describe(r Result, err error) string {
	if err != nil {
		return FormatError(err)
	}
	return FormatResult(r)
}
