package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage tracks how far a job progressed through the extraction pipeline.
type Stage int

const (
	StagePending Stage = iota
	StageFetched
	StageExtracted
	StageParsed
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFetched:
		return "fetched"
	case StageExtracted:
		return "extracted"
	case StageParsed:
		return "parsed"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Job is a transient request to ingest the recipe(s) at URL on behalf of a requester.
type Job struct {
	ID          string
	URL         string
	RequesterID int64
	GroupID     int64
	Stage       Stage
	SubmittedAt time.Time
}

// NewJob creates a pending job with a fresh correlation id.
func NewJob(url string, requesterID, groupID int64) *Job {
	return &Job{
		ID:          uuid.NewString(),
		URL:         url,
		RequesterID: requesterID,
		GroupID:     groupID,
		Stage:       StagePending,
		SubmittedAt: time.Now().UTC(),
	}
}

// StatusCode is a stable, machine-readable job outcome tag.
type StatusCode string

const (
	CodeOK           StatusCode = "ok"
	CodeNotFound     StatusCode = "not_found"
	CodeAccessDenied StatusCode = "access_denied"
	CodeServerError  StatusCode = "server_error"
	CodeServiceError StatusCode = "service_error"
	CodeTimeout      StatusCode = "timeout"
	CodeParseError   StatusCode = "parse_error"
	CodeNoRecipes    StatusCode = "no_recipes"
)

// Status is the terminal outcome of a job.
type Status struct {
	Code     StatusCode `json:"code"`
	HTTPCode int        `json:"http_code,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

// OK reports whether the job succeeded.
func (s Status) OK() bool {
	return s.Code == CodeOK
}

// String returns the user-facing text for the status.
func (s Status) String() string {
	switch s.Code {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "page not found"
	case CodeAccessDenied:
		return "access denied"
	case CodeServerError:
		return fmt.Sprintf("server error %d", s.HTTPCode)
	case CodeServiceError:
		return "service error"
	case CodeTimeout:
		return "fetch timeout"
	case CodeParseError:
		if s.Detail == "" {
			return "parse error"
		}
		return "parse error " + s.Detail
	case CodeNoRecipes:
		return "no recipes found"
	default:
		return string(s.Code)
	}
}

func StatusOK() Status        { return Status{Code: CodeOK} }
func StatusNotFound() Status  { return Status{Code: CodeNotFound, HTTPCode: 404} }
func StatusTimeout() Status   { return Status{Code: CodeTimeout} }
func StatusNoRecipes() Status { return Status{Code: CodeNoRecipes} }
func StatusAccessDenied(code int) Status {
	return Status{Code: CodeAccessDenied, HTTPCode: code}
}
func StatusServerError(code int) Status {
	return Status{Code: CodeServerError, HTTPCode: code}
}
func StatusServiceError(detail string) Status {
	return Status{Code: CodeServiceError, Detail: detail}
}
func StatusParseError(detail string) Status {
	return Status{Code: CodeParseError, Detail: detail}
}

// StatusForHTTP maps an upstream HTTP failure code to a status.
func StatusForHTTP(code int) Status {
	switch code {
	case 404:
		return StatusNotFound()
	case 401, 403:
		return StatusAccessDenied(code)
	default:
		return StatusServerError(code)
	}
}
