package commons

import (
	"github.com/google/uuid"
)

// NewId builds a new unique id.
// Two different calls should return two different values.
func NewId() string {
	return uuid.NewString()
}
