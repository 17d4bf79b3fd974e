package goals

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Percentage rounds completed/total to a whole percent in [0, 100].
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	return min(max(p, 0), 100)
}

// AggregateYear turns the records of one year into chart points sorted by
// date. Records without a stored total use currentTotal.
func AggregateYear(year int, records []DailyProgress, currentTotal int) []DayProgress {
	prefix := strconv.Itoa(year) + "-"

	points := make([]DayProgress, 0, len(records))
	for _, rec := range records {
		if !strings.HasPrefix(rec.Date, prefix) {
			continue
		}
		total := currentTotal
		if rec.TotalGoals != nil {
			total = *rec.TotalGoals
		}
		completed := len(UniqueIDs(rec.CompletedGoalIDs))
		points = append(points, DayProgress{
			Date:       rec.Date,
			Label:      DateLabel(rec.Date),
			Completed:  completed,
			Total:      total,
			Percentage: Percentage(completed, total),
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// FillYear returns one point per day from January 1st of year up to and
// including today (or December 31st for past years). Days without a
// point are zero days.
func FillYear(year int, points []DayProgress, today string) []DayProgress {
	byDate := make(map[string]DayProgress, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}

	var out []DayProgress
	day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == year {
		key := DateKey(day)
		if key > today {
			break
		}
		p, ok := byDate[key]
		if !ok {
			p = DayProgress{Date: key, Label: day.Format("Jan 2")}
		}
		out = append(out, p)
		day = day.AddDate(0, 0, 1)
	}
	if out == nil {
		out = []DayProgress{}
	}
	return out
}
