package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jask/gvoss/internal/database"
	"github.com/jask/gvoss/internal/database/repository"
)

const (
	similarScanLimit    = 200
	similarityThreshold = 0.55
)

// HistoryService reads and clears past questions.
type HistoryService struct {
	DB      *sql.DB
	Queries *repository.QueryRepo
}

// Match is a past query that resembles the current question.
type Match struct {
	Query      repository.Query
	Similarity float64
	SameImage  bool
}

// SimilarRequest describes what to compare against.
type SimilarRequest struct {
	Question    string
	ImageSHA256 string
	ExcludeID   string
}

func (s *HistoryService) Recent(ctx context.Context, n int) ([]repository.Query, error) {
	if s.Queries == nil {
		return nil, fmt.Errorf("history: not configured")
	}
	return s.Queries.List(ctx, n)
}

// Similar ranks past questions by edit distance. Questions about the same
// image sort first, then by similarity, then by recency.
func (s *HistoryService) Similar(ctx context.Context, req SimilarRequest, n int) ([]Match, error) {
	if s.Queries == nil {
		return nil, fmt.Errorf("history: not configured")
	}
	target := normalizeQuestion(req.Question)
	if target == "" {
		return nil, nil
	}
	past, err := s.Queries.List(ctx, similarScanLimit)
	if err != nil {
		return nil, err
	}

	var out []Match
	for i, q := range past {
		if q.ID == req.ExcludeID {
			continue
		}
		sim := questionSimilarity(target, normalizeQuestion(q.Question))
		if sim < similarityThreshold {
			continue
		}
		out = append(out, Match{
			Query:      past[i],
			Similarity: sim,
			SameImage:  req.ImageSHA256 != "" && q.ImageSHA256 == req.ImageSHA256,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SameImage != out[j].SameImage {
			return out[i].SameImage
		}
		return out[i].Similarity > out[j].Similarity
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Clear wipes the history. It keeps the schema intact.
func (s *HistoryService) Clear(ctx context.Context) (int64, error) {
	if s.DB == nil || s.Queries == nil {
		return 0, fmt.Errorf("history: db not configured")
	}
	var removed int64
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		n, err := s.Queries.DeleteAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("clear queries: %w", err)
		}
		removed = n
		return nil
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return removed, nil
}

func normalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.TrimRight(q, "?!. ")
	return strings.Join(strings.Fields(q), " ")
}

func questionSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
