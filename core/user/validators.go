package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/reminderx/backend/core"
)

var (
	roleTag  = "role"
	roleText = "must be one of: admin, staff"

	planTag  = "plan"
	planText = "unknown subscription plan"
)

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(planTag, planValidation)
	core.RegisterCustomTranslation(validate, translator, planTag, planText)
}

func roleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if val == role {
			return true
		}
	}
	return false
}

func planValidation(fl validator.FieldLevel) bool {
	val := Plan(fl.Field().String())
	for _, plan := range AllPlans {
		if val == plan {
			return true
		}
	}
	return false
}
