package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// активность проверяется по доменному перечислению
	_ = validate.RegisterValidation("activity", func(fl validator.FieldLevel) bool {
		return domain.ActivityType(fl.Field().String()).Valid()
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
