package logsink

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate *validator.Validate
var once sync.Once

// Validator returns the package's shared validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func validatePolicy(p *RotationPolicy) error {
	if err := Validator().Struct(p); err != nil {
		return errors.Wrap(err, errMsgPolicyInvalid)
	}
	return nil
}
