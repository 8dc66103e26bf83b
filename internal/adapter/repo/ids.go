package repo

import (
	"time"

	"github.com/google/uuid"
)

// newRecordID issues a UUIDv7: a millisecond timestamp followed by random
// bits, so identifiers sort by creation time.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type clock func() time.Time
