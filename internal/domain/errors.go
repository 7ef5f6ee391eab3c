package domain

import "errors"

var (
	// ErrNotFound is returned by key-value backends when a key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrSessionNotFound is returned when a builder session has not been opened.
	ErrSessionNotFound = errors.New("builder session not found")
	// ErrBriefRequired is returned when generation is requested without a brief.
	ErrBriefRequired = errors.New("please enter a short survey description before generating")
	// ErrGenerationInFlight rejects a generation request while another one is outstanding.
	ErrGenerationInFlight = errors.New("survey generation already in progress")
	// ErrInvalidRequest indicates a generation request outside the accepted bounds.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrSurveyIDRequired is returned when responses are submitted without a survey to attach them to.
	ErrSurveyIDRequired = errors.New("survey id required")
	// ErrGeneratorOverloaded marks a generator failure caused by quota or rate limits.
	ErrGeneratorOverloaded = errors.New("survey generator over quota or rate limited")
	// ErrEndpointNotFound marks a candidate endpoint that answered 404.
	ErrEndpointNotFound = errors.New("endpoint not found")
	// ErrEndpointUnavailable is returned when no candidate endpoint could be tried.
	ErrEndpointUnavailable = errors.New("generate endpoint not available")
)
