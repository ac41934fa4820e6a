package particular

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/schedule"
)

var (
	categoryTag  = "category"
	categoryText = "unknown category"

	methodTag  = "method"
	methodText = "must be one of: email, sms, push, whatsapp"

	recurrenceTag  = "recurrence"
	recurrenceText = "must be one of: none, daily, every_2_days"
)

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(methodTag, methodValidation)
	core.RegisterCustomTranslation(validate, translator, methodTag, methodText)

	_ = validate.RegisterValidation(recurrenceTag, recurrenceValidation)
	core.RegisterCustomTranslation(validate, translator, recurrenceTag, recurrenceText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, cat := range Categories {
		if val == cat {
			return true
		}
	}
	return false
}

func methodValidation(fl validator.FieldLevel) bool {
	val := Method(fl.Field().String())
	for _, m := range Methods {
		if val == m {
			return true
		}
	}
	return false
}

func recurrenceValidation(fl validator.FieldLevel) bool {
	return schedule.Recurrence(fl.Field().String()).Valid()
}
