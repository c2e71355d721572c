package openai

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the API with the decoded error object.
type HTTPError struct {
	StatusCode int
	Body       string
	Type       string
	Code       string
	Param      string
	Message    string
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: string(raw)}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
			Param   string `json:"param"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		he.Message = strings.TrimSpace(envelope.Error.Message)
		he.Type = strings.TrimSpace(envelope.Error.Type)
		he.Param = strings.TrimSpace(envelope.Error.Param)
		if envelope.Error.Code != nil {
			he.Code = strings.TrimSpace(fmt.Sprint(envelope.Error.Code))
		}
	}
	return he
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// IsContentPolicyViolation reports whether err is the API refusing a prompt
// on safety grounds. Newer responses carry code content_policy_violation;
// older ones only say "safety system" in the message.
func IsContentPolicyViolation(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	if he.StatusCode != http.StatusBadRequest {
		return false
	}
	if strings.EqualFold(he.Code, "content_policy_violation") {
		return true
	}
	msg := strings.ToLower(he.Message)
	if msg == "" {
		msg = strings.ToLower(he.Body)
	}
	return strings.Contains(msg, "safety system")
}

func decodeB64Image(b64 string) ([]byte, error) {
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, errors.New("image response missing b64_json and url")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode image base64: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("decode image base64: empty payload")
	}
	return raw, nil
}
