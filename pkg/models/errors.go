package models

import "fmt"

// DateParseError is returned when a timestamp matches none of the known layouts.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("failed to parse date: %q", e.Input)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// MissingFieldError is returned when a required article field is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field in article: %s", e.Field)
}

// AnalysisError wraps a failure while analyzing a single article.
type AnalysisError struct {
	Title string
	Err   error
}

func (e *AnalysisError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("analysis failed: %v", e.Err)
	}
	return fmt.Sprintf("analysis failed for %q: %v", e.Title, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
