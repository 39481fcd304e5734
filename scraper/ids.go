package scraper

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator assigns identifiers to product records.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator creates random UUIDv4 strings.
type UUIDGenerator struct{}

// NewID returns a UUIDv4 string.
func (UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid4: %w", err)
	}
	return id.String(), nil
}
