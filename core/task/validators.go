package task

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

var (
	statusTag  = "taskstatus"
	statusText = "statut inconnu (todo, in_progress, done)"

	priorityTag  = "taskpriority"
	priorityText = "priorité inconnue (low, medium, high)"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), Statuses)
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(priorityTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), Priorities)
	})
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}
