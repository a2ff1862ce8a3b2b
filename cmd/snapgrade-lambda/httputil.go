package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/auth"
)

// --- JSON Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// httpError sends a JSON error response. The clientMsg is returned to the
// caller. Optional internalDetails are logged server-side but never sent to
// the client, so S3 paths and AWS error text stay out of responses.
func httpError(w http.ResponseWriter, status int, clientMsg string, internalDetails ...string) {
	if len(internalDetails) > 0 {
		log.Error().
			Int("status", status).
			Str("clientMsg", clientMsg).
			Strs("internalDetails", internalDetails).
			Msg("HTTP error with internal details")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}

// --- Auth ---

// requireUser validates the bearer token on the request and returns the
// authenticated user ID. On failure it writes a 401 and returns ok=false.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.FromHeader(r.Header.Get("Authorization"))
	if err != nil {
		httpError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}

	userID, err := authority.Validate(token)
	if err != nil {
		var verr *auth.ValidationError
		if errors.As(err, &verr) && verr.Type == auth.ErrTypeExpired {
			httpError(w, http.StatusUnauthorized, "token expired")
		} else {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request with invalid token")
			httpError(w, http.StatusUnauthorized, "unauthorized")
		}
		return "", false
	}
	return userID, true
}
