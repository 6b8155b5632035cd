// Package validation wraps go-playground/validator with English messages
// keyed by json field names.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom tags for the closed enumerations
var enumTags = map[string]func(string) bool{
	"role": func(s string) bool {
		_, err := models.ParseRole(s)
		return err == nil
	},
	"membershiprole": func(s string) bool {
		return models.Role(s).IsMembershipRole()
	},
	"permission": func(s string) bool {
		_, err := models.ParsePermission(s)
		return err == nil
	},
	"academystatus": oneOf(models.AcademyStatusActive, models.AcademyStatusInactive, models.AcademyStatusPending),
	"studentstatus": oneOf(models.StudentStatusActive, models.StudentStatusInactive, models.StudentStatusGraduated, models.StudentStatusSuspended),
	"teacherstatus": oneOf(models.TeacherStatusActive, models.TeacherStatusInactive, models.TeacherStatusOnLeave),
	"feefrequency": oneOf(models.FeeFrequencyOneTime, models.FeeFrequencyMonthly, models.FeeFrequencyQuarterly,
		models.FeeFrequencyTermly, models.FeeFrequencyYearly),
	"paymentmethod": oneOf(models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodBankTransfer,
		models.PaymentMethodMobileMoney, models.PaymentMethodOnline),
	"attendancestatus": oneOf(models.AttendanceStatusPresent, models.AttendanceStatusAbsent,
		models.AttendanceStatusLate, models.AttendanceStatusExcused),
}

func oneOf[T ~string](allowed ...T) func(string) bool {
	return func(s string) bool {
		for _, a := range allowed {
			if string(a) == s {
				return true
			}
		}
		return false
	}
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, ok := range enumTags {
		check := ok
		_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
		registerTranslation(tag, "{0} has an unsupported value")
	}
	registerTranslation("required", "{0} is required", true)
	registerTranslation("eqfield", "{0} must match {1}", true)
}

func registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), lowerFirst(fe.Param()))
			return s
		},
	)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Struct validates v and returns an *apperrors.ValidationError describing
// every failing field, or nil.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{Field: fe.Field(), Message: fe.Translate(translator)})
	}
	return apperrors.NewValidationError(fields...)
}

// Var validates a single value against tag, reporting it under field.
func Var(field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msg := strings.TrimSpace(strings.TrimPrefix(verrs[0].Translate(translator), verrs[0].Field()))
	return apperrors.NewValidationError(apperrors.FieldError{Field: field, Message: field + " " + msg})
}
