package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/barbershop-api/pkg/timeofday"
)

// newScheduleValidator registers the wall-clock tags used by booking payloads.
func newScheduleValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeofday.Valid(fl.Field().String())
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(timeofday.DateLayout, fl.Field().String())
		return err == nil
	})
	return validate
}
