package main

import (
	"context"
	"fmt"

	"github.com/edupulse/feedback-api/internal/service"
	"github.com/edupulse/feedback-api/pkg/jobs"
)

// prewarmReports are the snapshots the background refresher keeps warm. They
// use default parameters, which is what the dashboards request.
var prewarmReports = []string{
	"overview",
	"professors",
	"classrooms",
	"subjects",
	"engagement",
	"trends",
	"moderation",
	"ai-insights",
}

func prewarmFunc(analytics *service.AnalyticsService) jobs.RefreshFunc {
	return func(ctx context.Context, report string) error {
		var err error
		switch report {
		case "overview":
			_, _, err = analytics.Overview(ctx)
		case "professors":
			_, _, err = analytics.ProfessorAnalytics(ctx, service.ProfessorAnalyticsParams{})
		case "classrooms":
			_, _, err = analytics.ClassroomAnalytics(ctx, service.ClassroomAnalyticsParams{})
		case "subjects":
			_, _, err = analytics.SubjectAnalytics(ctx)
		case "engagement":
			_, _, err = analytics.StudentEngagement(ctx)
		case "trends":
			_, _, err = analytics.Trends(ctx, 0)
		case "moderation":
			_, _, err = analytics.Moderation(ctx, 0)
		case "ai-insights":
			_, _, err = analytics.AIInsights(ctx)
		default:
			return fmt.Errorf("unknown report %q", report)
		}
		return err
	}
}
