package litellm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/codexflow/codexflow"
)

// parseHTTPError translates a non-2xx response into a [codexflow.HTTPError].
func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("litellm: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == nil {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &codexflow.HTTPError{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
	}
	return newHTTPError(resp.StatusCode, apiErr.Error)
}

// newHTTPError builds an HTTPError from an error object. The type falls
// back to the code when the backend sends no type.
func newHTTPError(status int, body *apiErrorBody) *codexflow.HTTPError {
	typ := body.Type
	if typ == "" || typ == "None" {
		typ = errorCode(body.Code)
	}
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &codexflow.HTTPError{Provider: providerName, StatusCode: status, Type: typ, Message: msg}
}

func errorCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
