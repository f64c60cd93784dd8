// Package validate contains the support for validating models.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

// validate holds the settings and caches for validating request struct values.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator ut.Translator

// mu serializes the registration of custom tags.
var mu sync.Mutex

func init() {

	// Instantiate a validator.
	validate = validator.New()

	// Create a translator for english so the error messages are
	// more human-readable than technical.
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")

	// Register the english error messages for use.
	en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Check validates the provided model against it's declared tags.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {

		// Use a type assertion to get the real error value.
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Error: verror.Translate(translator),
			}
			fields = append(fields, field)
		}

		return fields
	}

	return nil
}

// RegisterPattern adds a tag that requires a string field to fully match the
// regular expression.
func RegisterPattern(tag string, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}

	fn := func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}

	return RegisterFunc(tag, fn)
}

// RegisterFunc adds a tag backed by the validation function. Errors for the
// tag are reported as an invalid format.
func RegisterFunc(tag string, fn validator.Func) error {
	mu.Lock()
	defer mu.Unlock()

	if err := validate.RegisterValidation(tag, fn); err != nil {
		return err
	}

	reg := func(ut ut.Translator) error {
		return ut.Add(tag, "{0} has an invalid format", true)
	}

	tr := func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	}

	return validate.RegisterTranslation(tag, translator, reg, tr)
}

// GenerateID generate a unique id for entities.
func GenerateID() string {
	return uuid.NewString()
}

// CheckID validates that the format of an id is valid.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
