package natsq

import "errors"

var (
	// ErrMalformedMessage is returned when a message body cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrConnectionRequired is returned when no NATS connection is supplied.
	ErrConnectionRequired = errors.New("nats connection is required")

	// ErrIngestorRequired is returned when a Server has no ingestor.
	ErrIngestorRequired = errors.New("ingestor is required")

	// ErrAlreadyStarted is returned by Start on a running Server.
	ErrAlreadyStarted = errors.New("server already started")
)
