package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const ctxUserIDKey ctxKey = "analytics_user_id"

// Event names.
const (
	GoalCreated     = "goal_created"
	GoalUpdated     = "goal_updated"
	GoalDeleted     = "goal_deleted"
	GoalsReordered  = "goals_reordered"
	GoalCompleted   = "goal_completed"
	GoalUncompleted = "goal_uncompleted"
	DayLogged       = "day_logged"
	AppOpened       = "app_opened"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       int
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

var platforms = map[string]bool{"ios": true, "android": true, "web": true}

func header(r *http.Request, name string) string {
	return strings.TrimSpace(r.Header.Get(name))
}

// FromRequest builds the envelope from client headers. The user id comes
// from the auth context, never from the request.
func FromRequest(r *http.Request) Envelope {
	env := Envelope{
		SessionID:    header(r, "X-Session-Id"),
		Platform:     strings.ToLower(header(r, "X-Platform")),
		AppVersion:   header(r, "X-App-Version"),
		DeviceLocale: header(r, "X-Device-Locale"),
	}
	if !platforms[env.Platform] {
		env.Platform = "unknown"
	}
	if env.DeviceLocale == "" {
		env.DeviceLocale = header(r, "Accept-Language")
	}
	if uid, ok := UserIDFromContext(r.Context()); ok {
		env.UserID = uid
	}
	return env
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	uid, ok := ctx.Value(ctxUserIDKey).(int)
	return uid, ok
}

// SourceEventKeyFromRequest returns the client's idempotency key, if any.
// A repeated key is stored once.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := header(r, "Idempotency-Key"); k != "" {
		return k
	}
	return header(r, "X-Source-Event-Key")
}

// Track records an event for the request's user. Failures are only logged.
func Track(r *http.Request, db *sql.DB, eventName string, props any) {
	if err := Log(r.Context(), db, FromRequest(r), eventName, props, SourceEventKeyFromRequest(r)); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("event", eventName).Msg("analytics insert failed")
	}
}

// Log inserts one event row. Events without a user are dropped. props must
// already be free of goal text.
func Log(ctx context.Context, db *sql.DB, env Envelope, eventName string, props any, sourceEventKey string) error {
	if eventName == "" {
		return nil
	}
	userID := env.UserID
	if userID == 0 {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return nil
		}
		userID = uid
	}

	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode %s props: %w", eventName, err)
	}

	// NULL keys never conflict, so keyless events are always inserted.
	_, err = db.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time, user_id, session_id,
			platform, app_version, device_locale,
			source_event_key, properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, time.Now().UTC(), userID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(sourceEventKey), string(b),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", eventName, err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
