package logsink

import (
	"math"

	"github.com/pkg/errors"
)

// RotationPolicy governs when the live file is archived and how many
// archives are kept.
type RotationPolicy struct {
	// Dir holds the live file and its archives.
	Dir string `validate:"required"`
	// MaxBytes is the live file size that triggers rotation.
	MaxBytes int64 `validate:"gt=0"`
	// Keep is the number of archives retained; 0 keeps none.
	Keep int `validate:"gte=0"`
}

// NewRotationPolicy builds a validated policy from a size in kilobytes.
func NewRotationPolicy(dir string, sizeKB uint64, keep int) (RotationPolicy, error) {
	if sizeKB > math.MaxInt64/1024 {
		return RotationPolicy{}, errors.Errorf("max size %dKB overflows", sizeKB)
	}
	p := RotationPolicy{
		Dir:      dir,
		MaxBytes: int64(sizeKB) * 1024,
		Keep:     keep,
	}
	if err := validatePolicy(&p); err != nil {
		return RotationPolicy{}, err
	}
	return p, nil
}
