package goals

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTextLen   = 500
	maxGoalIDLen = 64
)

// NormalizeText trims goal text and enforces its length.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(t) > maxTextLen {
		return "", ErrTextTooLong
	}
	return t, nil
}

func indexOf(goals []Goal, id string) int {
	return slices.IndexFunc(goals, func(g Goal) bool { return g.ID == id })
}

// NewGoalID derives an id from the clock in milliseconds, bumping it until
// it is unique within goals.
func NewGoalID(now time.Time, goals []Goal) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if indexOf(goals, id) < 0 {
			return id
		}
		n++
	}
}

// Renumber returns a copy of goals with Order set to the list position.
func Renumber(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		g.Order = i
		out[i] = g
	}
	return out
}

// Prepend puts g at the top of the list.
func Prepend(goals []Goal, g Goal) []Goal {
	return Renumber(append([]Goal{g}, goals...))
}

// RemoveGoal drops the goal with id. ok is false when no goal matched.
func RemoveGoal(goals []Goal, id string) (out []Goal, ok bool) {
	i := indexOf(goals, id)
	if i < 0 {
		return goals, false
	}
	out = slices.Delete(slices.Clone(goals), i, i+1)
	return Renumber(out), true
}

// ReplaceText sets the text of goal id.
func ReplaceText(goals []Goal, id, text string) ([]Goal, Goal, bool) {
	i := indexOf(goals, id)
	if i < 0 {
		return goals, Goal{}, false
	}
	out := slices.Clone(goals)
	out[i].Text = text
	return out, out[i], true
}

// ReorderByIDs arranges goals in the order given by ids, which must name
// every goal exactly once.
func ReorderByIDs(goals []Goal, ids []string) ([]Goal, error) {
	if len(ids) != len(goals) {
		return nil, ErrInvalidOrder
	}
	out := make([]Goal, 0, len(goals))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := indexOf(goals, id)
		if i < 0 || seen[id] {
			return nil, ErrInvalidOrder
		}
		seen[id] = true
		out = append(out, goals[i])
	}
	return Renumber(out), nil
}

// MoveGoal moves the goal at index from to index to.
func MoveGoal(goals []Goal, from, to int) ([]Goal, error) {
	if from < 0 || from >= len(goals) || to < 0 || to >= len(goals) {
		return nil, ErrInvalidOrder
	}
	out := slices.Clone(goals)
	g := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, g)
	return Renumber(out), nil
}

// UniqueIDs drops duplicates and blanks, keeping first occurrences.
func UniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SetCompleted adds id to or removes it from a completion set.
func SetCompleted(ids []string, id string, completed bool) []string {
	out := UniqueIDs(ids)
	if completed {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
		return out
	}
	return slices.DeleteFunc(out, func(v string) bool { return v == id })
}

// MergeStatus marks each goal completed when its id is in completedIDs.
func MergeStatus(goals []Goal, completedIDs []string) []GoalWithStatus {
	done := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		done[id] = true
	}

	out := make([]GoalWithStatus, len(goals))
	for i, g := range goals {
		out[i] = GoalWithStatus{Goal: g, Completed: done[g.ID]}
	}
	return out
}

// SortForDisplay puts incomplete goals first, each group by order.
func SortForDisplay(goals []GoalWithStatus) {
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].Completed != goals[j].Completed {
			return !goals[i].Completed
		}
		return goals[i].Order < goals[j].Order
	})
}
