// Package analytics computes the aggregations behind the reporting view:
// per-category totals, the focus/sleep/leisure split, and day utilization.
package analytics

import (
	"sort"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
)

// CategoryTotal is the minutes logged against one category.
type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Minutes  int             `json:"minutes"`
}

// Report aggregates one day's activities.
type Report struct {
	Categories     []CategoryTotal `json:"categories"`
	TotalMinutes   int             `json:"total_minutes"`
	FocusMinutes   int             `json:"focus_minutes"`
	SleepMinutes   int             `json:"sleep_minutes"`
	LeisureMinutes int             `json:"leisure_minutes"`
	// UtilizationPct is the share of the 24-hour budget logged, capped
	// at 100.
	UtilizationPct int `json:"utilization_pct"`
}

var focusCategories = map[domain.Category]bool{
	domain.CategoryWork:     true,
	domain.CategoryStudy:    true,
	domain.CategoryExercise: true,
	domain.CategoryChores:   true,
}

// Build computes the report for a day's activities.
func Build(activities []domain.Activity) Report {
	totals := make(map[domain.Category]int)
	var report Report

	for _, a := range activities {
		totals[a.Category] += a.Minutes
		report.TotalMinutes += a.Minutes

		switch {
		case focusCategories[a.Category]:
			report.FocusMinutes += a.Minutes
		case a.Category == domain.CategorySleep:
			report.SleepMinutes += a.Minutes
		default:
			report.LeisureMinutes += a.Minutes
		}
	}

	report.Categories = make([]CategoryTotal, 0, len(totals))
	for category, minutes := range totals {
		report.Categories = append(report.Categories, CategoryTotal{Category: category, Minutes: minutes})
	}
	// Largest first; ties broken by category name for a stable order.
	sort.Slice(report.Categories, func(i, j int) bool {
		if report.Categories[i].Minutes != report.Categories[j].Minutes {
			return report.Categories[i].Minutes > report.Categories[j].Minutes
		}
		return report.Categories[i].Category < report.Categories[j].Category
	})

	// Rounded to the nearest percent.
	pct := (report.TotalMinutes*100 + domain.MinutesPerDay/2) / domain.MinutesPerDay
	if pct > 100 {
		pct = 100
	}
	report.UtilizationPct = pct
	return report
}
