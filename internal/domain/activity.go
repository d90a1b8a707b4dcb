// Package domain defines the business logic for the tasknest service.
package domain

import "fmt"

// Category classifies an activity. The set is closed; anything the user
// types that does not match is rejected at the API boundary.
type Category string

const (
	CategoryWork          Category = "Work"
	CategoryStudy         Category = "Study"
	CategorySleep         Category = "Sleep"
	CategoryEntertainment Category = "Entertainment"
	CategoryExercise      Category = "Exercise"
	CategoryChores        Category = "Chores"
	CategorySocial        Category = "Social"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryWork,
	CategoryStudy,
	CategorySleep,
	CategoryEntertainment,
	CategoryExercise,
	CategoryChores,
	CategorySocial,
	CategoryOther,
}

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", raw)
}

// Activity is one logged entry for a day. The ID is assigned at creation
// and never changes; Minutes is always within [0, MinutesPerDay].
type Activity struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Minutes  int      `json:"minutes"`
}

// DayRecord is the whole-value persisted form of one (user, date) ledger.
type DayRecord struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
	Analyzed   bool       `json:"isAnalyzed"`
}
