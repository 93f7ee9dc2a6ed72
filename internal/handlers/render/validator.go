package render

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateFormat is how the frontend sends closing dates
const DateFormat = "2006-01-02"

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("date", validateDate)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// validateDate accepts empty or a well-formed 2006-01-02 date. Combine with
// 'required' when the field must be present.
func validateDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	_, err := time.Parse(DateFormat, value)
	return err == nil
}

// ParseDate parses a request date into a UTC midnight timestamp
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateFormat, value)
}
