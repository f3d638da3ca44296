package models

// Constraints carries the knobs a generation run honours. Passed explicitly
// into every pass; there is no ambient configuration.
type Constraints struct {
	MaxDailyLessons      int  `json:"max_daily_lessons"`
	MaxWeeklyLessons     int  `json:"max_weekly_lessons"`
	PreferMorning        bool `json:"prefer_morning"`
	BalanceWorkload      bool `json:"balance_workload"`
	MinLessonsPerSubject int  `json:"min_lessons_per_subject"`
	MaxLessonsPerSubject int  `json:"max_lessons_per_subject"`
}

// DefaultConstraints returns sensible school-week defaults.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxDailyLessons:  6,
		MaxWeeklyLessons: 30,
		PreferMorning:    true,
		BalanceWorkload:  true,
	}
}
