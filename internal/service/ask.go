package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/gvoss/internal/database"
	"github.com/jask/gvoss/internal/database/repository"
	"github.com/jask/gvoss/internal/imaging"
	"github.com/jask/gvoss/internal/vqa"
)

var (
	ErrNoQuestion = errors.New("ask: question is empty")
	ErrNoImage    = errors.New("ask: no image loaded")
)

// AskInput is everything the form collects.
type AskInput struct {
	APIKey   string
	Upload   *imaging.Upload
	Question string
}

// Answer is what the answer panel renders. Text is always set; Err holds the
// failure behind it, if any.
type Answer struct {
	ID          string
	Question    string
	ImageSHA256 string
	Text        string
	Label       string
	Score       float64
	Candidates  []vqa.Prediction
	Err         error
}

func (a Answer) Failed() bool { return a.Err != nil }

// AskService runs one question through the provider and records it.
type AskService struct {
	Provider vqa.Provider
	Queries  *repository.QueryRepo
	Log      *zap.Logger
}

// Ask validates the form and performs a single exchange. Endpoint and
// transport failures are folded into the answer text; the returned error is
// reserved for input problems and cancellation.
func (s *AskService) Ask(ctx context.Context, in AskInput) (Answer, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return Answer{}, ErrNoQuestion
	}
	if in.Upload == nil {
		return Answer{}, ErrNoImage
	}
	if strings.TrimSpace(in.APIKey) == "" {
		return Answer{}, vqa.ErrNoAPIKey
	}

	res, err := s.Provider.Answer(ctx, vqa.Request{
		APIKey:   in.APIKey,
		Image:    in.Upload.Base64(),
		Question: in.Question,
	})
	if err != nil && ctx.Err() != nil {
		return Answer{}, ctx.Err()
	}

	ans := Answer{
		ID:          uuid.NewString(),
		Question:    question,
		ImageSHA256: in.Upload.SHA256,
		Text:        vqa.Describe(res, err),
		Err:         err,
	}
	if err == nil {
		ans.Label = res.Best.Label
		ans.Score = res.Best.Score
		ans.Candidates = res.Candidates
	}
	s.logger().Info("question answered",
		zap.String("provider", s.Provider.Name()),
		zap.String("image", in.Upload.Name),
		zap.Bool("failed", ans.Failed()),
	)
	s.record(ctx, *in.Upload, ans)
	return ans, nil
}

// record stores the exchange. History is a convenience: failures are logged
// and otherwise ignored.
func (s *AskService) record(ctx context.Context, up imaging.Upload, ans Answer) {
	if s.Queries == nil {
		return
	}
	q := repository.Query{
		ID:          ans.ID,
		AskedAt:     database.Now(),
		ImageName:   up.Name,
		ImageSHA256: up.SHA256,
		Question:    ans.Question,
		Answer:      ans.Text,
		Failed:      ans.Failed(),
	}
	if !ans.Failed() {
		label, score := ans.Label, ans.Score
		q.Label, q.Score = &label, &score
	}
	if err := s.Queries.Insert(ctx, q); err != nil {
		s.logger().Warn("record history", zap.String("id", ans.ID), zap.Error(err))
	}
}

func (s *AskService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
