package core

import (
	"errors"
	"fmt"
	"net/http"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"strings"
)

// ErrNoEligibleSource means no registered backend can express the request's
// constraints; callers should relax their filters.
var ErrNoEligibleSource = errors.New("core: no source can satisfy the given constraints")

// NoDataError means every eligible backend returned nothing for the request.
type NoDataError struct {
	Notices []string
}

func (e *NoDataError) Error() string {
	if len(e.Notices) == 0 {
		return "core: no data from sources"
	}
	return "core: no data from sources: " + strings.Join(e.Notices, "; ")
}

// StatusCode maps the condition for transport layers.
func (e *NoDataError) StatusCode() int { return http.StatusBadRequest }

// AmbiguousReferenceError means a reference resolved to several candidates.
type AmbiguousReferenceError struct {
	Ref        string
	Candidates Result
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("core: %s is ambiguous: %d candidates", e.Ref, len(e.Candidates.Rows))
}

// StatusCode maps the condition for transport layers.
func (e *AmbiguousReferenceError) StatusCode() int { return http.StatusMultipleChoices }

// NotFoundError means a variant or gene reference matched nothing.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("core: %s %s not found", e.Kind, e.Ref)
}

// StatusCode maps the condition for transport layers.
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// StatusCode returns the transport status for err, 500 when unclassified.
func StatusCode(err error) int {
	var sc interface{ StatusCode() int }
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()
	case errors.Is(err, ErrNoEligibleSource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sourceapi.ErrConnectionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errUndisclosed):
		return http.StatusForbidden
	case errors.Is(err, genomics.ErrVariantUndefined),
		errors.Is(err, genomics.ErrIntervalUndefined),
		errors.Is(err, genomics.ErrGeneUndefined),
		errors.Is(err, genomics.ErrInvalidChromosome),
		errors.Is(err, genomics.ErrContradictingRegion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
