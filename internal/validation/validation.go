// Package validation содержит проверку входных данных запросов.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В сообщениях используем имена полей из JSON, а не из Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return !field.IsZero()
		}
		return strings.TrimSpace(field.String()) != ""
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})

	return v
}

// Struct проверяет структуру по тегам validate и возвращает ошибку
// с перечислением всех некорректных полей.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "es obligatorio"
	case "email":
		return "correo inválido"
	case "phone":
		return "teléfono inválido"
	case "min":
		return "debe ser al menos " + fe.Param()
	case "max":
		return "debe ser como máximo " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "gte":
		return "debe ser mayor o igual que " + fe.Param()
	case "lte":
		return "debe ser menor o igual que " + fe.Param()
	case "oneof":
		return "debe ser uno de [" + fe.Param() + "]"
	case "url":
		return "URL inválida"
	default:
		return "valor inválido (" + fe.Tag() + ")"
	}
}

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// IsValidPhone проверяет формат номера телефона (цифры, пробелы, дефисы, ведущий +).
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}
