package training

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

var (
	hhmmTag  = "hhmm"
	hhmmText = "{0} must be a time of day between 00:00 and 23:59"

	weekdayTag  = "weekday"
	weekdayText = "{0} must be a weekday between 0 (Sunday) and 6 (Saturday)"
)

// InitValidators registers the training validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	core.RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)
}

func hhmmValidation(fl validator.FieldLevel) bool {
	tod, ok := fl.Field().Interface().(TimeOfDay)
	return ok && tod.Valid()
}

func weekdayValidation(fl validator.FieldLevel) bool {
	day, ok := fl.Field().Interface().(time.Weekday)
	return ok && day >= time.Sunday && day <= time.Saturday
}
