package pipeline

import (
	"errors"
	"fmt"

	"github.com/user/curation-service/internal/fetcher"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
)

// ErrorKind is the caller-facing failure category.
type ErrorKind string

const (
	KindInvalidURL ErrorKind = "InvalidUrl"
	KindNotFound   ErrorKind = "NotFound"
	KindForbidden  ErrorKind = "Forbidden"
	KindTimeout    ErrorKind = "Timeout"
	KindNetwork    ErrorKind = "NetworkError"
)

var kindMessages = map[ErrorKind]string{
	KindInvalidURL: "Please provide a valid http or https URL.",
	KindNotFound:   "The page could not be found. Check the URL and try again.",
	KindForbidden:  "The site refused access to this page.",
	KindTimeout:    "The site took too long to respond. Please try again.",
	KindNetwork:    "The page could not be retrieved. Please try again later.",
}

// Message is a short explanation suitable for end users.
func (k ErrorKind) Message() string {
	if m, ok := kindMessages[k]; ok {
		return m
	}
	return kindMessages[KindNetwork]
}

// PipelineError reports which stage stopped a preview and why.
type PipelineError struct {
	Stage Stage
	Kind  ErrorKind
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Stage, e.URL, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func fetchKind(err error) ErrorKind {
	var ferr *fetcher.FetchError
	if !errors.As(err, &ferr) {
		return KindNetwork
	}
	switch ferr.Kind {
	case fetcher.KindNotFound:
		return KindNotFound
	case fetcher.KindForbidden:
		return KindForbidden
	case fetcher.KindTimeout:
		return KindTimeout
	default:
		return KindNetwork
	}
}
