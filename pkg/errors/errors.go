package errors

import (
	"errors"
	"fmt"
	"time"
)

// Stage identifies the pipeline stage an error originated from
type Stage string

const (
	// StageListing represents errors while fetching the offer list
	StageListing Stage = "listing"
	// StageFetch represents errors while fetching a single offer page
	StageFetch Stage = "fetch"
	// StageExtraction represents errors while deriving structured data from an offer
	StageExtraction Stage = "extraction"
	// StageEnrichment represents errors from the commute/route service
	StageEnrichment Stage = "enrichment"
	// StageSink represents spreadsheet write errors
	StageSink Stage = "sink"
	// StageConfiguration represents startup configuration errors
	StageConfiguration Stage = "configuration"
)

// PipelineError is the error type carried through the offer pipeline.
// Fatal errors abort the whole batch; everything else is logged per offer
// and the batch continues.
type PipelineError struct {
	Stage   Stage
	Slug    string
	Message string
	Err     error
	Fatal   bool
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Slug != "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s: %s - %v", e.Stage, e.Slug, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Stage, e.Slug, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s - %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError
func New(stage Stage, slug, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Slug:    slug,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewListing creates a listing error
func NewListing(message string, err error) *PipelineError {
	return New(StageListing, "", message, err)
}

// NewFetch creates a fetch error for one offer
func NewFetch(slug, message string, err error) *PipelineError {
	return New(StageFetch, slug, message, err)
}

// NewExtraction creates an extraction error for one offer
func NewExtraction(slug, message string, err error) *PipelineError {
	return New(StageExtraction, slug, message, err)
}

// NewEnrichment creates an enrichment error for one offer
func NewEnrichment(slug, message string, err error) *PipelineError {
	return New(StageEnrichment, slug, message, err)
}

// NewSink creates a sink error for one offer
func NewSink(slug, message string, err error) *PipelineError {
	return New(StageSink, slug, message, err)
}

// NewSinkAuth creates a fatal sink error; further writes would also fail,
// so the batch must abort
func NewSinkAuth(slug, message string, err error) *PipelineError {
	e := New(StageSink, slug, message, err)
	e.Fatal = true
	return e
}

// NewConfiguration creates a fatal configuration error
func NewConfiguration(message string, err error) *PipelineError {
	e := New(StageConfiguration, "", message, err)
	e.Fatal = true
	return e
}

// IsFatal reports whether err (or any error it wraps) must abort the batch
func IsFatal(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Fatal
	}
	return false
}

// StageOf returns the pipeline stage of err, or an empty stage for
// untyped errors
func StageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
