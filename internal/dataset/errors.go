package dataset

import "fmt"

// MissingError reports an absent dataset file. The pipeline cannot proceed;
// the remedy is to regenerate or re-fetch the extract.
type MissingError struct {
	Dataset string
	Path    string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s dataset not found at %s; run `boardpack generate` (or `boardpack fetch`) first",
		e.Dataset, e.Path)
}

// MalformedError reports a dataset whose shape does not match the contract:
// a required column is absent, or a cell cannot be parsed.
type MalformedError struct {
	Dataset string
	Column  string
	Row     int // 1-based data row, 0 when the problem is the header
	Detail  string
}

func (e *MalformedError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s dataset malformed: column %q: %s", e.Dataset, e.Column, e.Detail)
	}
	return fmt.Sprintf("%s dataset malformed: column %q row %d: %s", e.Dataset, e.Column, e.Row, e.Detail)
}
