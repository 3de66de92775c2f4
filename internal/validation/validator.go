// Package validation evaluates struct-tag schemas with go-playground/validator
// and turns failures into a FieldErrors map with human-readable messages.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Messager lets a schema override messages per "field.tag" key,
// e.g. "confirmPassword.eqfield".
type Messager interface {
	ValidationMessages() map[string]string
}

// Validator wraps go-playground/validator with English translations.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	defaultValidator *Validator
	once             sync.Once
)

// Default returns the shared validator, built on first use.
func Default() *Validator {
	once.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New creates a Validator that reports fields by their json (or form) name.
func New() *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	v.trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v.validate, v.trans)

	return v
}

// Struct validates s and returns nil when it is valid.
func (v *Validator) Struct(s any) FieldErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var overrides map[string]string
	if m, ok := s.(Messager); ok {
		overrides = m.ValidationMessages()
	}

	errs := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("_", err.Error())
		return errs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if msg, ok := overrides[field+"."+fe.Tag()]; ok {
			errs.Add(field, msg)
			continue
		}
		errs.Add(field, fe.Translate(v.trans))
	}
	return errs
}
