package domain

import (
	"errors"
	"fmt"
)

// ErrMissingYear reports that no archive object exists for a station-year.
// Stations lack files for years before commissioning or after closure, so a
// run treats these as empty years rather than failures.
var ErrMissingYear = errors.New("station year not in archive")

// StructuralError marks a (station, year) unit whose raw data cannot be
// decoded at all, as opposed to individual fields decoding to invalid.
// Carrying the unit identity lets a batch skip or retry just that unit and
// keep the rest of the run.
type StructuralError struct {
	Station string
	Year    int
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("station %s year %d: %v", e.Station, e.Year, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }
