package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// remoteErrorBody accepts both error shapes seen from upstream APIs:
// the envelope {"error":{"code","message"}} and the flat
// {"message","name","statusCode"} used by the catalog API.
type remoteErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message json.RawMessage `json:"message"`
	Name    string          `json:"name"`
}

func (b remoteErrorBody) message() (string, bool) {
	if b.Error != nil && b.Error.Message != "" {
		return b.Error.Message, true
	}
	if len(b.Message) == 0 {
		return "", false
	}
	var single string
	if json.Unmarshal(b.Message, &single) == nil && single != "" {
		return single, true
	}
	var many []string
	if json.Unmarshal(b.Message, &many) == nil && len(many) > 0 {
		return strings.Join(many, "; "), true
	}
	return "", false
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError carrying the remote message when one can be decoded.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return mapStatus(resp.StatusCode, fmt.Sprintf("failed to read body: %v", err), serviceName, nil)
	}
	return fromBody(resp.StatusCode, bodyBytes, serviceName, nil)
}

// ParseStatusError translates a 5xx answer already captured by the circuit
// breaker into an AppError, keeping statusErr in the chain.
func ParseStatusError(statusErr *StatusError, serviceName string) error {
	return fromBody(statusErr.StatusCode, []byte(statusErr.Body), serviceName, statusErr)
}

func fromBody(status int, bodyBytes []byte, serviceName string, cause error) error {
	var body remoteErrorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		if msg, ok := body.message(); ok {
			return mapStatus(status, msg, serviceName, cause)
		}
	}

	msg := strings.TrimSpace(string(bodyBytes))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return mapStatus(status, msg, serviceName, cause)
}

func mapStatus(status int, message, serviceName string, cause error) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)
	if cause == nil {
		cause = fmt.Errorf("status %d", status)
	}

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualified,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	default:
		return apperrors.Upstream(qualified, cause)
	}
}
