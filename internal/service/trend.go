package service

import (
	"sort"
	"time"

	"github.com/edupulse/feedback-api/internal/dto"
	"github.com/edupulse/feedback-api/internal/models"
)

const trendDateLayout = "2006-01-02"

// dayOf truncates a timestamp to its calendar day in the timestamp's own
// location; no timezone conversion happens here.
func dayOf(t time.Time) string {
	return t.Format(trendDateLayout)
}

// BuildCreationTrend buckets creation timestamps at or after since by
// calendar day. Only days with activity produce a point, mirroring a SQL
// GROUP BY DATE reduction; output ascends by date.
func BuildCreationTrend(stamps []time.Time, since time.Time) []dto.TrendPoint {
	counts := make(map[string]int)
	for _, stamp := range stamps {
		if stamp.Before(since) {
			continue
		}
		counts[dayOf(stamp)]++
	}
	points := make([]dto.TrendPoint, 0, len(counts))
	for date, count := range counts {
		points = append(points, dto.TrendPoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// BuildFeedbackTrend buckets rated evaluations by the day they were last
// updated, carrying each day's average rating at two decimals.
func BuildFeedbackTrend(evals []models.Evaluation, since time.Time) []dto.FeedbackTrendPoint {
	type acc struct {
		count int
		sum   int
	}
	days := make(map[string]*acc)
	for _, ev := range evals {
		if ev.Rating == nil || ev.UpdatedAt.Before(since) {
			continue
		}
		day := dayOf(ev.UpdatedAt)
		if days[day] == nil {
			days[day] = &acc{}
		}
		days[day].count++
		days[day].sum += *ev.Rating
	}
	points := make([]dto.FeedbackTrendPoint, 0, len(days))
	for date, a := range days {
		points = append(points, dto.FeedbackTrendPoint{
			Date:          date,
			Count:         a.count,
			AverageRating: round2(float64(a.sum) / float64(a.count)),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// BuildSentimentTrend buckets sentiment-tagged evaluations by day. Each
// point carries per-sentiment counts and each sentiment's share of the
// day's total at one decimal place.
func BuildSentimentTrend(evals []models.Evaluation, since time.Time) []dto.SentimentTrendPoint {
	type acc struct {
		positive int
		negative int
		neutral  int
	}
	days := make(map[string]*acc)
	for _, ev := range evals {
		if ev.Sentiment == nil || ev.UpdatedAt.Before(since) {
			continue
		}
		day := dayOf(ev.UpdatedAt)
		if days[day] == nil {
			days[day] = &acc{}
		}
		switch *ev.Sentiment {
		case models.SentimentPositive:
			days[day].positive++
		case models.SentimentNegative:
			days[day].negative++
		case models.SentimentNeutral:
			days[day].neutral++
		}
	}
	points := make([]dto.SentimentTrendPoint, 0, len(days))
	for date, a := range days {
		total := a.positive + a.negative + a.neutral
		if total == 0 {
			continue
		}
		points = append(points, dto.SentimentTrendPoint{
			Date:               date,
			Positive:           a.positive,
			Negative:           a.negative,
			Neutral:            a.neutral,
			Total:              total,
			PositivePercentage: percentOf1(a.positive, total),
			NegativePercentage: percentOf1(a.negative, total),
			NeutralPercentage:  percentOf1(a.neutral, total),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}
