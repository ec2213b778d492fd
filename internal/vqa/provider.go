package vqa

import (
	"context"
	"errors"
	"fmt"
)

// DefaultEndpoint is the hosted ViLT model fine-tuned for VQA. The model is
// addressed by the URL, so the request body carries no model field.
const DefaultEndpoint = "https://router.huggingface.co/hf-inference/models/dandelin/vilt-b32-finetuned-vqa"

// MissingKeyMessage is shown when a question is asked before a key is entered.
const MissingKeyMessage = "Please enter your API key above to get an answer."

var ErrNoAPIKey = errors.New("vqa: api key not configured")

// Provider answers a question about an image.
type Provider interface {
	Name() string
	Answer(ctx context.Context, req Request) (Result, error)
}

// Request is one question about one image. Image is standard base64 of the
// PNG bytes.
type Request struct {
	APIKey   string
	Image    string
	Question string
}

// Prediction is a single candidate answer.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result holds the decoded predictions, best first.
type Result struct {
	Best       Prediction
	Candidates []Prediction
	Raw        []byte
}

// payload is the JSON body the inference router expects.
type payload struct {
	Inputs inputs `json:"inputs"`
}

type inputs struct {
	Image    string `json:"image"`
	Question string `json:"question"`
}

// APIError is an error reported by the endpoint in an {"error": ...} body.
type APIError struct {
	Message string
	Raw     []byte
}

func (e *APIError) Error() string {
	return "vqa: api error: " + e.Message
}

// ResponseError means the body could not be turned into a prediction.
type ResponseError struct {
	Err error
	Raw []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("vqa: process response: %v", e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }
