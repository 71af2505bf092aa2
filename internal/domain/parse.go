package domain

import (
	"bytes"
	"fmt"

	"github.com/gocarina/gocsv"
)

// ParseObservations unmarshals a station-year CSV payload into raw rows.
// Archive files carry many more columns than the pipeline consumes; the
// unmatched ones are ignored, and columns missing from older files leave
// their fields empty. An empty payload yields no rows.
func ParseObservations(data []byte) ([]RawObservation, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rows []RawObservation
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parse station csv: %w", err)
	}
	return rows, nil
}
