package identitytest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pokemcp/internal/identity"
)

type sessionBody struct {
	identity.Tokens
	User *identity.User `json:"user,omitempty"`
}

type errorBody struct {
	ErrorCode string `json:"error_code,omitempty"`
	Msg       string `json:"msg"`
}

// Handler serves the GoTrue endpoints used by identity.GoTrueClient under
// /auth/v1.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email        string `json:"email"`
			Password     string `json:"password"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "could not parse request body")
			return
		}

		var (
			resp *identity.AuthResponse
			err  error
		)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			resp, err = b.SignInWithPassword(r.Context(), req.Email, req.Password)
		case "refresh_token":
			resp, err = b.Refresh(r.Context(), req.RefreshToken)
		default:
			writeError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant_type")
			return
		}
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionBody{Tokens: *resp.Session, User: resp.User})
	})

	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "could not parse request body")
			return
		}
		user, err := b.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := b.SignOut(r.Context(), bearer(r)); err != nil {
			writeBackendError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		user, err := b.Introspect(r.Context(), bearer(r))
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.APIKey != "" && r.Header.Get("apikey") != b.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No API key found in request"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		writeError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
	case errors.Is(err, identity.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
	case errors.Is(err, ErrUserExists):
		writeError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	default:
		writeError(w, http.StatusInternalServerError, "unexpected_failure", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{ErrorCode: code, Msg: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
