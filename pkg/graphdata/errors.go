package graphdata

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingReference is returned when a link refers to a node id that is not in the data set.
	ErrDanglingReference = errors.New("dangling link reference")
	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrEmptyID is returned for a node without an id.
	ErrEmptyID = errors.New("empty node id")
	// ErrUnknownFormat is returned when a data file has an unsupported format.
	ErrUnknownFormat = errors.New("unknown data format")
)

// DanglingReferenceError identifies the link endpoint that could not be resolved.
type DanglingReferenceError struct {
	Link     int    // Index of the link in Data.Links
	Endpoint string // "source" or "target"
	ID       string // The unresolved node id
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("link %d: %s %q not found in node set", e.Link, e.Endpoint, e.ID)
}

// Unwrap allows errors.Is(err, ErrDanglingReference).
func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }
