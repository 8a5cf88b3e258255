package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/lible-app/lible-api/internal/schedule"
)

// NewValidator builds the shared validator with the bell schedule
// custom rules registered.
//
//	weekdaymask: int field must be a valid weekday bitmask (1..127)
//	offsetrange: int field must lie within [-120, 120]
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weekdaymask", func(fl validator.FieldLevel) bool {
		return schedule.ValidMask(int(fl.Field().Int()))
	})
	_ = v.RegisterValidation("offsetrange", func(fl validator.FieldLevel) bool {
		offset := fl.Field().Int()
		return offset >= -120 && offset <= 120
	})
	return v
}
