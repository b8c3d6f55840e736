package domain

import (
	"fmt"
	"sort"
	"strings"
)

// CorruptRecordError reports that one or more encrypted attributes of a stored record
// could not be opened. The rest of the record was decoded and is still usable, so list
// callers decide per record whether to fail the page, omit the record or flag it.
type CorruptRecordError struct {
	RecordType string
	RecordID   string
	// Fields maps each unreadable attribute to the reason it could not be opened.
	Fields map[string]error
}

// Error implements error.
func (e *CorruptRecordError) Error() string {
	names := e.FieldNames()
	return fmt.Sprintf(
		"corrupt %s record %s: unreadable fields [%s]",
		e.RecordType,
		e.RecordID,
		strings.Join(names, ", "),
	)
}

// Unwrap exposes ErrAuthenticationFailure so callers can match it with errors.Is.
func (e *CorruptRecordError) Unwrap() error {
	return ErrAuthenticationFailure
}

// FieldNames returns the unreadable attribute names in sorted order.
func (e *CorruptRecordError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
