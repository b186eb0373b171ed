package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/store"

	"github.com/google/uuid"
)

type UsersHandler struct {
	DB *sql.DB
}

type createUserReq struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		WriteError(w, r, http.StatusUnprocessableEntity, "validation_failed", "email is required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	u := domain.User{
		ID:           uuid.NewString(),
		PrimaryEmail: email,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	added, err := store.InsertUserIgnore(r.Context(), h.DB, u)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	if !added {
		existing, err := store.GetUserByEmail(r.Context(), h.DB, email)
		if err != nil || existing == nil {
			WriteError(w, r, http.StatusInternalServerError, "internal_error", "user lookup failed")
			return
		}
		WriteJSON(w, http.StatusOK, existing)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

// resolveUser turns the ?user= query param (primary email) into a user row.
func resolveUser(r *http.Request, db *sql.DB) (*domain.User, string) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("user")))
	if email == "" {
		return nil, "missing ?user= (primary email)"
	}
	u, err := store.GetUserByEmail(r.Context(), db, email)
	if err != nil {
		return nil, "user lookup failed"
	}
	if u == nil {
		return nil, "no account for " + email
	}
	return u, ""
}
