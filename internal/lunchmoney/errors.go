package lunchmoney

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is raised when the remote service answers outside 2xx or returns a
// non-empty errors list in an otherwise successful response.
type APIError struct {
	StatusCode int
	Errors     []string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("lunchmoney: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("lunchmoney: %s", strings.Join(e.Errors, "; "))
}

// errorList tolerates the two error shapes the service emits: a single string
// or an array of strings.
type errorList []string

func (l *errorList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*l = []string{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// errorEnvelope is probed on every response body.
type errorEnvelope struct {
	Errors errorList `json:"errors"`
	Error  errorList `json:"error"`
}

func (e errorEnvelope) messages() []string {
	if len(e.Errors) > 0 {
		return e.Errors
	}
	return e.Error
}
