package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/materialsdesk/internal/orders"
)

// ErrSessionExpired is returned when a 401 survives one token refresh. The
// caller must send the admin back to the login screen.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError is a non-2xx response from the marketplace API.
type APIError struct {
	Status      int
	Message     string
	FieldErrors orders.FieldErrors
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
}

// UserMessage is the message the API sent, shown to the admin verbatim.
func (e *APIError) UserMessage() string {
	return e.Message
}

type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Path    string `json:"path"`
	Param   string `json:"param"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = strings.TrimSpace(eb.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(eb.Error)
		}
		apiErr.FieldErrors = parseFieldErrors(eb.Errors)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Request failed with status %d", status)
		if text := http.StatusText(status); text != "" {
			apiErr.Message = fmt.Sprintf("Request failed with status %d (%s)", status, text)
		}
	}
	return apiErr
}

// parseFieldErrors accepts either a list of {field|path|param, message|msg}
// or a plain field -> message object.
func parseFieldErrors(raw json.RawMessage) orders.FieldErrors {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	fe := orders.FieldErrors{}
	var list []fieldError
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			field := firstNonEmpty(item.Field, item.Path, item.Param)
			msg := firstNonEmpty(item.Message, item.Msg)
			if field != "" && msg != "" {
				fe.Add(field, msg)
			}
		}
	} else {
		var byField map[string]string
		if err := json.Unmarshal(raw, &byField); err == nil {
			for field, msg := range byField {
				fe.Add(field, msg)
			}
		}
	}

	if fe.Empty() {
		return nil
	}
	return fe
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
