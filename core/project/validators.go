package project

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

var (
	stageTag  = "stage"
	stageText = "étape inconnue (idea, validation, mvp, launch, growth)"

	teamRoleTag  = "teamrole"
	teamRoleText = "rôle inconnu (admin, member, viewer)"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(stageTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), Stages)
	})
	core.RegisterCustomTranslation(validate, translator, stageTag, stageText)

	_ = validate.RegisterValidation(teamRoleTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), []string{RoleAdmin, RoleMember, RoleViewer})
	})
	core.RegisterCustomTranslation(validate, translator, teamRoleTag, teamRoleText)
}
