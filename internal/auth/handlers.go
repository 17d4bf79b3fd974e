package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func writeSession(w http.ResponseWriter, tokens Tokens, userID int, isGuest bool) {
	token, err := tokens.Issue(userID)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":  userID,
		"token":    token,
		"is_guest": isGuest,
	})
}

func RegisterHandler(dbx *sql.DB, tokens Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = normalizeEmail(body.Email)
		if err := validateCredentials(body.Email, body.Password); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := CreateUser(r.Context(), dbx, body.Email, body.Password)
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("register")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, id, false)
	}
}

func LoginHandler(dbx *sql.DB, tokens Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id, err := Authenticate(r.Context(), dbx, body.Email, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("login")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, id, false)
	}
}

// GuestHandler signs in anonymously. The guest can keep using the app and
// later attach credentials through LinkHandler.
func GuestHandler(dbx *sql.DB, tokens Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := CreateGuest(r.Context(), dbx)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("guest sign-in")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, id, true)
	}
}

func LinkHandler(dbx *sql.DB, tokens Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = normalizeEmail(body.Email)
		if err := validateCredentials(body.Email, body.Password); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err := LinkGuest(r.Context(), dbx, uid, body.Email, body.Password)
		switch {
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, "email already exists", http.StatusConflict)
			return
		case errors.Is(err, ErrNotGuest):
			http.Error(w, "account already linked", http.StatusConflict)
			return
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
			return
		case err != nil:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("link guest")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, uid, false)
	}
}

func MeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := GetUser(r.Context(), dbx, uid)
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("me")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(u)
	}
}
