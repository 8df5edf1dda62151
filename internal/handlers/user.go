// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hanabira-dev/rikka-server/internal/auth"
	"github.com/hanabira-dev/rikka-server/internal/database"
	"github.com/hanabira-dev/rikka-server/internal/models"
	"github.com/hanabira-dev/rikka-server/internal/rank"
)

// accountView is the account shape the HTTP endpoints return: the profile
// plus the rank progression derived from the lifetime total score.
type accountView struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	TotalScore int       `json:"totalScore"`
	Rank       rank.Rank `json:"rank"`
	NextRank   rank.Rank `json:"nextRank"`
	ToNext     int       `json:"pointsToNextRank"`
	Token      string    `json:"token,omitempty"`
}

func newAccountView(u *models.User, token string) accountView {
	next, toNext := rank.Next(u.TotalScore)
	return accountView{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		TotalScore: u.TotalScore,
		Rank:       rank.ForScore(u.TotalScore),
		NextRank:   next,
		ToNext:     toNext,
		Token:      token,
	}
}

// RegisterHandler creates a persistent account. Guests play without one;
// registering lets match results count toward a lifetime score and rank.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Pool == nil {
			http.Error(w, "accounts are disabled", http.StatusServiceUnavailable)
			return
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password are required", http.StatusBadRequest)
			return
		}

		user := models.User{
			Email:       req.Email,
			Password:    req.Password,
			Username:    req.Username,
			IsEphemeral: false,
		}
		if err := database.CreateUser(r.Context(), s.Pool, &user); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				http.Error(w, "email already exists", http.StatusConflict)
				return
			}
			s.Logger.WithError(err).Error("failed to create user")
			http.Error(w, "error creating user", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(newAccountView(&user, ""))
	}
}

// LoginHandler verifies credentials and sets the session cookie, so the next
// websocket connection carries the account identity.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Pool == nil {
			http.Error(w, "accounts are disabled", http.StatusServiceUnavailable)
			return
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		user, token, err := database.AuthenticateUser(r.Context(), s.Pool, req.Email, req.Password)
		if err != nil {
			s.Logger.WithError(err).Info("login rejected")
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newAccountView(user, token))
	}
}
