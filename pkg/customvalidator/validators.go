// Файл: pkg/customvalidator/validators.go

package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("uz_phone", isUzbekPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("order_kind", isKnownOrderKind); err != nil {
		return err
	}
	return nil
}

func isUzbekPhoneNumber(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^\+998\d{9}$`)
	return re.MatchString(fl.Field().String())
}

func isKnownOrderKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "connection", "technician", "staff":
		return true
	}
	return false
}
