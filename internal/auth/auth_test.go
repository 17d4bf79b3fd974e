package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-goals-backend/internal/db/dbtest"
)

var testTokens = Tokens{Secret: []byte("test-secret"), TTL: time.Hour}

func TestToken_RoundTrip(t *testing.T) {
	tok, err := testTokens.Issue(42)
	require.NoError(t, err)

	uid, err := ParseToken(testTokens.Secret, tok)
	require.NoError(t, err)
	assert.Equal(t, 42, uid)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(testTokens.Secret, 1, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := GenerateToken([]byte("other"), 1, time.Hour)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testTokens.Secret)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(testTokens.Secret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":      expired,
		"other secret": otherSecret,
		"no user":      noUser,
		"wrong alg":    hs512,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(testTokens.Secret, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	mw := New(testTokens.Secret)
	var gotUID int
	h := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		gotUID, _ = UserIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/goals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := testTokens.Issue(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/goals", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, gotUID)
}

func TestUsers_RegisterLoginLink(t *testing.T) {
	dbx := dbtest.Open(t)
	ctx := context.Background()

	id, err := CreateUser(ctx, dbx, " Ann@Example.com ", "secret1")
	require.NoError(t, err)

	_, err = CreateUser(ctx, dbx, "ann@example.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := Authenticate(ctx, dbx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = Authenticate(ctx, dbx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Authenticate(ctx, dbx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	guest, err := CreateGuest(ctx, dbx)
	require.NoError(t, err)
	u, err := GetUser(ctx, dbx, guest)
	require.NoError(t, err)
	assert.True(t, u.IsGuest)
	assert.Empty(t, u.Email)

	assert.ErrorIs(t, LinkGuest(ctx, dbx, guest, "ann@example.com", "secret3"), ErrEmailTaken)
	require.NoError(t, LinkGuest(ctx, dbx, guest, "bob@example.com", "secret3"))
	assert.ErrorIs(t, LinkGuest(ctx, dbx, guest, "bob2@example.com", "secret3"), ErrNotGuest)

	u, err = GetUser(ctx, dbx, guest)
	require.NoError(t, err)
	assert.False(t, u.IsGuest)
	assert.Equal(t, "bob@example.com", u.Email)

	linked, err := Authenticate(ctx, dbx, "bob@example.com", "secret3")
	require.NoError(t, err)
	assert.Equal(t, guest, linked)
}

func TestLinkGuest_SameEmailRace(t *testing.T) {
	dbx := dbtest.Open(t)
	ctx := context.Background()

	var guests []int
	for i := 0; i < 4; i++ {
		id, err := CreateGuest(ctx, dbx)
		require.NoError(t, err)
		guests = append(guests, id)
	}

	errs := make(chan error, len(guests))
	var wg sync.WaitGroup
	for _, id := range guests {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs <- LinkGuest(ctx, dbx, id, "same@example.com", "secret1")
		}(id)
	}
	wg.Wait()
	close(errs)

	var ok, taken int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(guests)-1, taken)
}

func TestLinkHandler_EmailTaken(t *testing.T) {
	dbx := dbtest.Open(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, dbx, "taken@example.com", "secret1")
	require.NoError(t, err)
	guest, err := CreateGuest(ctx, dbx)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/link", strings.NewReader(`{"email":"taken@example.com","password":"secret2"}`))
	req = req.WithContext(WithUserID(req.Context(), guest))
	rec := httptest.NewRecorder()
	LinkHandler(dbx, testTokens)(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestDeleteUser(t *testing.T) {
	dbx := dbtest.Open(t)
	ctx := context.Background()

	id, err := CreateUser(ctx, dbx, "c@example.com", "secret1")
	require.NoError(t, err)

	_, err = dbx.Exec(`INSERT INTO goals (user_id, id, text, position, created_at) VALUES ($1, 'g1', 'run', 0, $2)`, id, time.Now())
	require.NoError(t, err)

	require.NoError(t, DeleteUser(ctx, dbx, id))

	_, err = GetUser(ctx, dbx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)

	var n int
	require.NoError(t, dbx.QueryRow(`SELECT COUNT(*) FROM goals WHERE user_id=$1`, id).Scan(&n))
	assert.Zero(t, n)
}

func TestRegisterHandler(t *testing.T) {
	dbx := dbtest.Open(t)
	h := RegisterHandler(dbx, testTokens)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"email":"d@example.com","password":"secret1"}`, http.StatusOK},
		{"duplicate", `{"email":"d@example.com","password":"secret1"}`, http.StatusConflict},
		{"short password", `{"email":"e@example.com","password":"123"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))
			require.Equal(t, tt.code, rec.Code, rec.Body.String())

			if tt.code == http.StatusOK {
				var resp struct {
					UserID int    `json:"user_id"`
					Token  string `json:"token"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				uid, err := ParseToken(testTokens.Secret, resp.Token)
				require.NoError(t, err)
				assert.Equal(t, resp.UserID, uid)
			}
		})
	}
}

func TestGuestThenMe(t *testing.T) {
	dbx := dbtest.Open(t)

	rec := httptest.NewRecorder()
	GuestHandler(dbx, testTokens)(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		UserID  int    `json:"user_id"`
		Token   string `json:"token"`
		IsGuest bool   `json:"is_guest"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.True(t, session.IsGuest)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	New(testTokens.Secret).Wrap(MeHandler(dbx))(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, session.UserID, me.ID)
	assert.True(t, me.IsGuest)
}
