package errors

import (
	// Go Internal Packages
	"fmt"
)

// ErrRaceNoOp marks a load that was skipped because the same source is already loading.
var ErrRaceNoOp = E(RaceNoOp, "load already in flight", nil)

// ErrExhausted marks a load that was skipped because the source has nothing older.
var ErrExhausted = E(RaceNoOp, "source has no more records", nil)

func InvalidParamsErr(err error) error {
	return E(Invalid, "invalid params", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

// FetchErr wraps a network/HTTP failure of the named source or of the delay queue.
func FetchErr(source string, err error) error {
	return Op(source, Fetch, "fetch failed", err)
}

// DataIntegrityErr reports a record of source that is missing field.
func DataIntegrityErr(source, id, field string) error {
	return Op(source, DataIntegrity, fmt.Sprintf("record %q is missing %s", id, field), nil)
}
