package safety

import (
	"errors"

	msafety "github.com/viant/safealloc/model/safety"
	"github.com/viant/safealloc/service/pool"
)

var (
	// ErrUnsafe is returned when no safe sequence exists.
	ErrUnsafe = errors.New("system is not in a safe state")

	// ErrInvalidInput mirrors the model validation error.
	ErrInvalidInput = msafety.ErrInvalidInput

	// ErrResourceExhausted is returned when a request exceeds available units.
	ErrResourceExhausted = pool.ErrResourceExhausted
)
