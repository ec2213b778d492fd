package vqa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errEmptyBody     = errors.New("empty response body")
	errNoPredictions = errors.New("response contains no predictions")
)

type wirePrediction struct {
	Label *string  `json:"label"`
	Score *float64 `json:"score"`
}

// ParseResponse interprets a raw response body. The HTTP status is ignored:
// the router reports failures (model loading, bad token) in the body.
func ParseResponse(raw []byte) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result{Raw: raw}, &ResponseError{Err: errEmptyBody, Raw: raw}
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Result{Raw: raw}, &ResponseError{Err: err, Raw: raw}
		}
		if msg, ok := obj["error"]; ok {
			return Result{Raw: raw}, &APIError{Message: errorText(msg), Raw: raw}
		}
		return Result{Raw: raw}, &ResponseError{Err: errNoPredictions, Raw: raw}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Result{Raw: raw}, &ResponseError{Err: err, Raw: raw}
		}
		if len(items) == 0 {
			return Result{Raw: raw}, &ResponseError{Err: errNoPredictions, Raw: raw}
		}
		preds := make([]Prediction, 0, len(items))
		for i, item := range items {
			p, err := decodePrediction(item)
			if err != nil {
				if i == 0 {
					return Result{Raw: raw}, &ResponseError{Err: fmt.Errorf("first prediction: %w", err), Raw: raw}
				}
				continue
			}
			preds = append(preds, p)
		}
		return Result{Best: preds[0], Candidates: preds, Raw: raw}, nil
	default:
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return Result{Raw: raw}, &ResponseError{Err: err, Raw: raw}
		}
		return Result{Raw: raw}, &ResponseError{Err: fmt.Errorf("unexpected response of type %T", v), Raw: raw}
	}
}

func decodePrediction(item json.RawMessage) (Prediction, error) {
	var wp wirePrediction
	if err := json.Unmarshal(item, &wp); err != nil {
		return Prediction{}, err
	}
	if wp.Label == nil {
		return Prediction{}, errors.New("missing label")
	}
	if wp.Score == nil {
		return Prediction{}, errors.New("missing score")
	}
	return Prediction{Label: *wp.Label, Score: *wp.Score}, nil
}

// errorText renders the "error" member: strings verbatim, anything else as
// compact JSON.
func errorText(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, msg); err != nil {
		return string(msg)
	}
	return buf.String()
}
