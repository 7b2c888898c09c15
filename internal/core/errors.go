package core

import (
	"errors"
	"fmt"
)

// ConfigurationError reports missing or contradictory settings. It is raised
// when a component is constructed, never at call time.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured: %s", e.Component, e.Reason)
}

// FetchError is returned when a manual cannot be downloaded.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError is returned when a document cannot be opened or parsed.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrSynthesisFailed marks a synthesizer failure or unusable model output.
var ErrSynthesisFailed = errors.New("synthesis failed")

// PublishError is returned by a publication target that rejected an article.
type PublishError struct {
	Title string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %q: %v", e.Title, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsIngestError reports whether err is a fetch or extraction failure.
func IsIngestError(err error) bool {
	var fe *FetchError
	var ee *ExtractionError
	return errors.As(err, &fe) || errors.As(err, &ee)
}
