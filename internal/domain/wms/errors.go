package wms

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Error kinds surfaced by the WMS gateway
var (
	// ErrConfiguration is returned before any network call when no usable credentials are configured
	ErrConfiguration = errors.New("wms: client is not configured")
	// ErrAuthentication is returned when the bearer token cannot be obtained
	ErrAuthentication = errors.New("wms: authentication failed")
	// ErrTransport is returned for connection, timeout and DNS level failures
	ErrTransport = errors.New("wms: transport failure")
	// ErrRemoteStatus is matched by every *RemoteStatusError
	ErrRemoteStatus = errors.New("wms: remote returned an error status")
	// ErrInvalidResponse is returned when a response body is not valid JSON
	ErrInvalidResponse = errors.New("wms: invalid response body")
)

// Errors raised by the sync layer and repositories
var (
	ErrNotFound            = errors.New("wms: record not found")
	ErrInboundSyncDisabled = errors.New("wms: inbound sync is disabled")
	ErrEntityBusy          = errors.New("wms: entity is being synced by another worker")
	ErrMissingRemoteID     = errors.New("wms: remote response carried no identifier")
)

// maxErrorBodyLen bounds the response body kept on a RemoteStatusError
const maxErrorBodyLen = 2048

// RemoteStatusError is a non-2xx response from the WMS
type RemoteStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// NewRemoteStatusError creates a RemoteStatusError, truncating very long bodies
func NewRemoteStatusError(method, url string, statusCode int, body []byte) *RemoteStatusError {
	b := string(body)
	if len(b) > maxErrorBodyLen {
		cut := maxErrorBodyLen
		// back off to a rune boundary so the kept body stays valid UTF-8
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		b = b[:cut]
	}
	return &RemoteStatusError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Body:       b,
	}
}

func (e *RemoteStatusError) Error() string {
	return fmt.Sprintf("wms: %s %s returned HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is reports whether target is ErrRemoteStatus
func (e *RemoteStatusError) Is(target error) bool {
	return target == ErrRemoteStatus
}

// IsUnauthorized reports whether err is a 401 from the WMS
func IsUnauthorized(err error) bool {
	var rse *RemoteStatusError
	return errors.As(err, &rse) && rse.StatusCode == 401
}
