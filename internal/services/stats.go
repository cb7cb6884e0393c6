package services

import (
	"math"
	"time"

	"github.com/fsdevblog/shortlinks/internal/models"
)

// DashboardStats сводная статистика пользователя.
type DashboardStats struct {
	TotalLinks   int     `json:"totalLinks"`
	TotalClicks  int64   `json:"totalClicks"`
	TodayClicks  int64   `json:"todayClicks"`
	AvgClickRate float64 `json:"avgClickRate"`
}

// AggregateStats считает статистику по ссылкам. today приводится к дню по UTC,
// среднее округляется до одного знака, без ссылок равно 0.
func AggregateStats(links []models.Link, today time.Time) DashboardStats {
	stats := DashboardStats{TotalLinks: len(links)}
	for i := range links {
		stats.TotalClicks += links[i].Clicks
		stats.TodayClicks += links[i].TodayClicks(today)
	}
	if stats.TotalLinks > 0 {
		avg := float64(stats.TotalClicks) / float64(stats.TotalLinks)
		stats.AvgClickRate = math.Round(avg*10) / 10 //nolint:mnd
	}
	return stats
}
