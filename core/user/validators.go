package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Evenson-7/OJTManagement-sub000/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	internshipStatusTag  = "internshipstatus"
	internshipStatusText = "invalid internship status"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(internshipStatusTag, internshipStatusValidation)
	core.RegisterCustomTranslation(validate, translator, internshipStatusTag, internshipStatusText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return contains(AllRoles, fl.Field().String())
}

func internshipStatusValidation(fl validator.FieldLevel) bool {
	return contains(AllInternshipStatuses, fl.Field().String())
}
