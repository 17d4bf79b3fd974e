package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// JWT stateless => сервер ничего не “разлогинивает”.
		// Фронт просто удаляет токен.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

func DeleteAccountHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := DeleteUser(r.Context(), dbx, uid); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("delete account")
			http.Error(w, "delete account failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
