// Package crawlerrors defines the structured error type shared by the fetch
// and publish paths, plus the transport-error classifier that decides whether
// a failed URL earns its single requeue.
package crawlerrors

import (
	"fmt"
	"strings"
	"time"
)

// CrawlError represents a structured error for one crawling operation.
type CrawlError struct {
	URL       string
	Operation string
	Err       error
	Retry     bool
	Timestamp time.Time
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	return fmt.Sprintf("CrawlError: %s operation failed for URL %s at %s: %v (Retry: %v)",
		e.Operation, e.URL, e.Timestamp.Format(time.RFC3339), e.Err, e.Retry)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// New builds a CrawlError stamped with the current time.
func New(url, operation string, err error, retry bool) *CrawlError {
	return &CrawlError{
		URL:       url,
		Operation: operation,
		Err:       err,
		Retry:     retry,
		Timestamp: time.Now(),
	}
}

// transportMarkers are the message fragments that identify transient
// network-level failures across the Kafka and HTTP paths.
var transportMarkers = []string{
	"timeout",
	"connection refused",
	"no such host",
}

// IsRetriableMessage reports whether an error message describes a
// transport-class failure worth one automatic requeue.
func IsRetriableMessage(msg string) bool {
	for _, marker := range transportMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRetriable classifies an error by its message. Nil errors are not
// retriable.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	return IsRetriableMessage(err.Error())
}
