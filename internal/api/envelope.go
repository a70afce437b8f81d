package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

const maxErrorBody = 200

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// decodeBody accepts either shape the backend produces and decodes the
// payload into out.
func decodeBody(route string, body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &DecodeError{Route: route, Err: errors.New("empty body")}
	}

	payload := body
	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Success != nil {
			if !*env.Success {
				return &Error{Message: env.Message}
			}
			if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
				payload = env.Data
			}
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &DecodeError{Route: route, Body: snippet(body), Err: err}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body, which
// is JSON ({message} or {error}) on some routes and plain text on others.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if body[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Error != "" {
				return payload.Error
			}
		}
	}
	return snippet(body)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
