package inference

import "fmt"

// InsufficientDataError reports a sample that yielded no data rows at all.
type InsufficientDataError struct {
	Path string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: no rows sampled from %s", e.Path)
}

// MalformedHeaderError reports a header row that cannot produce a schema.
type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return "malformed header: " + e.Reason
}

// TooManyMalformedRowsError reports a sample dominated by rows whose field
// count does not match the header.
type TooManyMalformedRowsError struct {
	Skipped int
	Total   int
}

func (e *TooManyMalformedRowsError) Error() string {
	return fmt.Sprintf("%d of %d sampled rows have a field count differing from the header", e.Skipped, e.Total)
}
