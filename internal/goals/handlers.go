package goals

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"daily-goals-backend/internal/analytics"
	"daily-goals-backend/internal/auth"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP status codes. The service has
// already logged them.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownUser):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrGoalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicateGoal):
		http.Error(w, err.Error(), http.StatusConflict)
	case IsClientError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "db error", http.StatusInternalServerError)
	}
}

func ListGoalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, date, err := svc.GoalsWithStatus(r.Context(), uid, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"date":  date,
			"goals": list,
		})
	}
}

func CreateGoalHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.AddGoal(r.Context(), uid, body.ID, body.Text)
		if err != nil {
			writeError(w, err)
			return
		}

		// analytics: goal_created (НЕ логируем сырой текст)
		analytics.Track(r, dbx, analytics.GoalCreated, map[string]any{
			"goal_id":   g.ID,
			"text_len":  len(g.Text),
			"client_id": strings.TrimSpace(body.ID) != "",
		})

		writeJSONStatus(w, http.StatusCreated, g)
	}
}

func UpdateGoalHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.UpdateGoal(r.Context(), uid, r.PathValue("id"), body.Text)
		if err != nil {
			writeError(w, err)
			return
		}

		analytics.Track(r, dbx, analytics.GoalUpdated, map[string]any{
			"goal_id":  g.ID,
			"text_len": len(g.Text),
		})

		writeJSON(w, g)
	}
}

func DeleteGoalHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := r.PathValue("id")
		if err := svc.DeleteGoal(r.Context(), uid, id, r.URL.Query().Get("date")); err != nil {
			writeError(w, err)
			return
		}

		analytics.Track(r, dbx, analytics.GoalDeleted, map[string]any{
			"goal_id": id,
		})

		writeJSON(w, map[string]any{"ok": true})
	}
}

func ReorderGoalsHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// either a full order or a single drag-and-drop move
		var body struct {
			IDs  []string `json:"ids"`
			From *int     `json:"from"`
			To   *int     `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var (
			list []Goal
			err  error
		)
		switch {
		case body.IDs != nil:
			list, err = svc.ReorderGoals(r.Context(), uid, body.IDs)
		case body.From != nil && body.To != nil:
			list, err = svc.MoveGoal(r.Context(), uid, *body.From, *body.To)
		default:
			http.Error(w, "ids or from/to required", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		analytics.Track(r, dbx, analytics.GoalsReordered, map[string]any{
			"count": len(list),
		})

		writeJSON(w, list)
	}
}

func ToggleGoalHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Date      string `json:"date"`
			Completed *bool  `json:"completed"`
		}
		// empty body = flip today's state
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id := r.PathValue("id")
		p, err := svc.ToggleGoal(r.Context(), uid, body.Date, id, body.Completed)
		if err != nil {
			writeError(w, err)
			return
		}

		event := analytics.GoalUncompleted
		for _, done := range p.CompletedGoalIDs {
			if done == id {
				event = analytics.GoalCompleted
				break
			}
		}
		analytics.Track(r, dbx, event, map[string]any{
			"goal_id":     id,
			"date":        p.Date,
			"completed_n": len(p.CompletedGoalIDs),
			"total_goals": p.TotalGoals,
		})

		writeJSON(w, p)
	}
}

func GetDailyProgressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.DailyProgress(r.Context(), uid, r.PathValue("date"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func LogDayHandler(svc *Service, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			CompletedGoalIDs []string `json:"completed_goal_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.LogDay(r.Context(), uid, r.PathValue("date"), body.CompletedGoalIDs)
		if err != nil {
			writeError(w, err)
			return
		}

		analytics.Track(r, dbx, analytics.DayLogged, map[string]any{
			"date":        p.Date,
			"completed_n": len(p.CompletedGoalIDs),
			"backfill":    p.Date != svc.Today(),
		})

		writeJSON(w, p)
	}
}

func YearlyProgressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		year := r.URL.Query().Get("year")
		if year == "" {
			year = svc.Today()[:4]
		}

		days, err := svc.YearlyProgress(r.Context(), uid, year)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"year": year,
			"days": days,
		})
	}
}
