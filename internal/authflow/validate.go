package authflow

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPhone           = "phone"
	FieldConfirmPassword = "confirmPassword"

	msgInvalidEmail    = "Invalid email address"
	msgShortPassword   = "Password must be at least 6 characters"
	msgInvalidPhone    = "Invalid phone number (use international format: +1234567890)"
	msgPasswordsDiffer = "Passwords do not match"
)

var fieldMessages = map[string]string{
	FieldEmail:           msgInvalidEmail,
	FieldPassword:        msgShortPassword,
	FieldPhone:           msgInvalidPhone,
	FieldConfirmPassword: msgPasswordsDiffer,
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

type emailForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type forgotForm struct {
	Email string `json:"email" validate:"required,email"`
}

type phoneForm struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type resetForm struct {
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// check runs the struct rules and maps each failing field to its message.
func check(form any) map[string]string {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(form), &verrs) {
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = fieldMessages[fe.Field()]
	}
	return errs
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// validateEmailForm checks the email form. The password is not part of the
// forgot-password form.
func validateEmailForm(s State) map[string]string {
	if s.View == ViewForgotPassword {
		return check(forgotForm{Email: s.Form.Email})
	}
	return check(emailForm{Email: s.Form.Email, Password: s.Form.Password})
}

func validatePhoneForm(s State) map[string]string {
	return check(phoneForm{Phone: s.Form.Phone})
}

func validateResetForm(s State) map[string]string {
	return check(resetForm{Password: s.Form.Password, ConfirmPassword: s.Form.ConfirmPassword})
}

// apply stores errs on the state and reports whether the form is valid.
func (s *State) apply(errs map[string]string) bool {
	if len(errs) == 0 {
		s.Errors = nil
		return true
	}
	s.Errors = errs
	return false
}
