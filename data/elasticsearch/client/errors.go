package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrNilClient       = errors.New("elasticsearch client is nil")
	ErrClosed          = errors.New("elasticsearch client is closed")
	ErrUnavailable     = errors.New("elasticsearch is unavailable")
	ErrIndexExists     = errors.New("elasticsearch index already exists")
	ErrIndexNotFound   = errors.New("elasticsearch index not found")
	ErrNotAcknowledged = errors.New("elasticsearch request not acknowledged")
)

// ResponseError is an error reported by the engine in a response body.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("elasticsearch error: status %d: %s: %s", e.StatusCode, e.Type, e.Reason)
}

// Is maps engine exception types onto the package sentinels.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrIndexExists:
		return e.Type == "resource_already_exists_exception"
	case ErrIndexNotFound:
		return e.Type == "index_not_found_exception"
	}
	return false
}

// newResponseError decodes the error body of a failed response.
// The "error" member is an object for most APIs and a plain string for some.
func newResponseError(res *esapi.Response) error {
	re := &ResponseError{StatusCode: res.StatusCode}
	if res.Body == nil {
		return re
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil || len(raw) == 0 {
		return re
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return re
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body.Error, &detail); err == nil {
		re.Type, re.Reason = detail.Type, detail.Reason
		return re
	}

	var reason string
	if err := json.Unmarshal(body.Error, &reason); err == nil {
		re.Reason = reason
	}
	return re
}
