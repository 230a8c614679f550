package scraper

import "fmt"

// NetworkError reports a failed page request: a transport error or a
// non-200 response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedPageError reports a page that does not match the timetable
// layout. It is fatal for the whole page.
type MalformedPageError struct {
	Page   string
	Reason string
	Err    error
}

func (e *MalformedPageError) Error() string {
	msg := "malformed schedule page"
	if e.Page != "" {
		msg += " " + e.Page
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedPageError) Unwrap() error {
	return e.Err
}

func malformed(reason string, err error) *MalformedPageError {
	return &MalformedPageError{Reason: reason, Err: err}
}
