package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// basic local@domain.tld shape; deliverability is not checked
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	instance *validator.Validate
	once     sync.Once
)

// FieldError names a single failed rule using the json field name
type FieldError struct {
	Field string
	Tag   string
}

// Error collects every failed rule of a struct
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	message := ""
	for _, f := range e.Fields {
		if len(message) > 0 {
			message += "; "
		}
		message += fmt.Sprintf("%s %s", f.Field, f.Tag)
	}
	return message
}

// Failed reports whether field failed the given tag; an empty tag matches any rule
func (e *Error) Failed(field, tag string) bool {
	for _, f := range e.Fields {
		if f.Field == field && (tag == "" || f.Tag == tag) {
			return true
		}
	}
	return false
}

// Email checks the basic address shape used across the API
func Email(s string) bool {
	return emailRe.MatchString(s)
}

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = instance.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
			return Email(fl.Field().String())
		})
	})
	return instance
}

// Struct validates a single struct object
func Struct(s interface{}) error {
	if s == nil {
		return fmt.Errorf("is nil")
	}
	if !isStruct(s) {
		return fmt.Errorf("not a struct")
	}
	var validationErrors validator.ValidationErrors
	var invalidValidationError *validator.InvalidValidationError

	err := get().Struct(s)
	if err == nil {
		return nil
	}

	if errors.As(err, &validationErrors) {
		result := &Error{}
		for _, fieldErr := range validationErrors {
			result.Fields = append(result.Fields, FieldError{Field: fieldErr.Field(), Tag: fieldErr.Tag()})
		}
		return result
	} else if errors.As(err, &invalidValidationError) {
		return fmt.Errorf("invalid validation error: %w", err)
	} else {
		return fmt.Errorf("unknown validation error: %w", err)
	}
}

func isStruct(s interface{}) bool {
	r := reflect.TypeOf(s)
	if r.Kind() == reflect.Ptr {
		r = r.Elem()
	}
	return r.Kind() == reflect.Struct
}
