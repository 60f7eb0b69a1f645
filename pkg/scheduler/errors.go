package scheduler

import (
	"errors"
	"fmt"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

var (
	ErrEmptyPool      = errors.New("no eligible personnel")
	ErrInvalidCatalog = errors.New("invalid shift catalog")
	ErrInvalidInput   = errors.New("invalid planning input")
)

// ConfigurationError reports a track whose eligible pool is empty at scheduling time
type ConfigurationError struct {
	Track models.Track
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("track %s: %v", e.Track, ErrEmptyPool)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrEmptyPool
}
