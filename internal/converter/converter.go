// Package converter turns raw file bytes into a structured document.
// The pipeline treats it as an opaque collaborator: it classifies each
// input as converted, skipped or failed, and never touches the object
// store.
package converter

import (
	"context"
	"fmt"
)

// Status classifies a conversion attempt
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusSkipped        Status = "skipped"
	StatusFailure        Status = "failure"
)

// Succeeded reports whether the status counts as a successful
// conversion. Only success and partial success do.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusPartialSuccess
}

// Metadata is attached to every exported document
type Metadata struct {
	OriginalFilename string `json:"original_filename"`
	FileSizeBytes    int64  `json:"file_size_bytes"`
	ConversionStatus string `json:"conversion_status"`
}

// Page is one extracted page of text
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is the structured output of a successful conversion. The
// schema is owned by this package; consumers serialize it as-is.
type Document struct {
	SchemaName string   `json:"schema_name"`
	Name       string   `json:"name"`
	PageCount  int      `json:"page_count"`
	Pages      []Page   `json:"pages"`
	Metadata   Metadata `json:"metadata"`
}

// Result carries the classified outcome of one conversion. Document is
// nil unless the status counts as success; Errors collects page-level
// messages for partial successes.
type Result struct {
	Status   Status
	Document *Document
	Errors   []string
}

// Converter is the conversion collaborator contract
type Converter interface {
	// CanConvert reports whether a file with this name is of the
	// convertible type. Convert skips (not fails) anything it cannot
	// handle, so this exists only to let callers filter up front.
	CanConvert(name string) bool
	Convert(ctx context.Context, data []byte, originalName string) (*Result, error)
}

// ConversionError wraps whatever went wrong while converting one file
type ConversionError struct {
	Name string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %s: %v", e.Name, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
