package goals

import "time"

// Goal is one entry of a user's persistent goal list. Order is the position
// in the list and is rewritten on every save.
type Goal struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// GoalWithStatus is a goal merged with one day's completion set.
type GoalWithStatus struct {
	Goal
	Completed bool `json:"completed"`
}

// DailyProgress is the completion snapshot of one calendar day.
// TotalGoals is nil for records written before the goal count was stored.
type DailyProgress struct {
	Date             string    `json:"date"`
	CompletedGoalIDs []string  `json:"completed_goal_ids"`
	TotalGoals       *int      `json:"total_goals"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// DayProgress is one point of the yearly series.
type DayProgress struct {
	Date       string `json:"date"`
	Label      string `json:"label"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}
