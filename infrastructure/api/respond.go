package api

import (
	"chat-relay/errors"
	"encoding/json"
	"log/slog"
	"net/http"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto a status code and a message safe to
// show to the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	}
	writeJSON(w, status, messageResponse{Message: clientMessage(err, status)})
}

func clientMessage(err error, status int) string {
	var (
		validation    errors.ValidationError
		authorization errors.AuthorizationError
	)
	switch {
	case status == http.StatusInternalServerError:
		return "Internal server error."
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &authorization):
		return authorization.Message
	case errors.Is(err, errors.ErrInvalidCredentials):
		return "Incorrect password."
	case errors.Is(err, errors.ErrInvalidUsername):
		return "Username must be 2-32 characters."
	case errors.Is(err, errors.ErrNotFound):
		return "Not found."
	case status == http.StatusUnauthorized:
		return "Unauthorized."
	default:
		return http.StatusText(status)
	}
}

// decode reads a JSON body. Field rules are enforced by the services.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.ValidationError{Message: errors.ErrInvalidPayload.Error()}
	}
	return nil
}
