package service

import (
	"math"

	"github.com/edupulse/feedback-api/internal/models"
)

// RatingStats is the shared reduction over a population of evaluation rows.
// PopulationSize counts enrollment rows in scope, rated or not; all derived
// ratios fall back to zero when their denominator is zero.
type RatingStats struct {
	PopulationSize     int     `json:"population_size"`
	RatedCount         int     `json:"rated_count"`
	FeedbackCount      int     `json:"feedback_count"`
	AverageRating      float64 `json:"average_rating"`
	CompletionRate     float64 `json:"completion_rate"`
	PositiveCount      int     `json:"positive_count"`
	NegativeCount      int     `json:"negative_count"`
	NeutralCount       int     `json:"neutral_count"`
	PositivePercentage float64 `json:"positive_percentage"`
}

// SentimentTotal is the number of sentiment-tagged rows in the population.
func (s RatingStats) SentimentTotal() int {
	return s.PositiveCount + s.NegativeCount + s.NeutralCount
}

// SummarizeEvaluations reduces the given rows into RatingStats. Rows with
// unknown sentiment labels count toward nothing; absent ratings degrade to
// the zero defaults rather than failing.
func SummarizeEvaluations(evals []models.Evaluation) RatingStats {
	stats := RatingStats{PopulationSize: len(evals)}

	var ratingSum int
	for _, ev := range evals {
		if ev.Rating != nil {
			stats.RatedCount++
			ratingSum += *ev.Rating
		}
		if ev.HasFeedback() {
			stats.FeedbackCount++
		}
		if ev.Sentiment == nil {
			continue
		}
		switch *ev.Sentiment {
		case models.SentimentPositive:
			stats.PositiveCount++
		case models.SentimentNegative:
			stats.NegativeCount++
		case models.SentimentNeutral:
			stats.NeutralCount++
		}
	}

	if stats.RatedCount > 0 {
		stats.AverageRating = round2(float64(ratingSum) / float64(stats.RatedCount))
	}
	stats.CompletionRate = percentOf(stats.FeedbackCount, stats.PopulationSize)
	stats.PositivePercentage = percentOf(stats.PositiveCount, stats.SentimentTotal())
	return stats
}

// percentOf is the single zero-guarded percentage helper used by every
// report; two-decimal rounding.
func percentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// percentOf1 matches percentOf with the one-decimal rounding required by
// the sentiment trend series.
func percentOf1(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
