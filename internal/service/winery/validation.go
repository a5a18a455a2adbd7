package winery

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
)

// CreateInput is the payload accepted by Service.Create.
type CreateInput struct {
	Name string `json:"name" validate:"trimmednotempty,trimmedmin=3,trimmedmax=256"`
}

// messages keyed by validator tag. The first %s is the display name of the
// field, the second the tag param.
var messages = map[string]string{
	"trimmednotempty": "'%s' must not be empty.",
	"trimmedmin":      "'%s' must be at least %s characters long (excluding whitespace).",
	"trimmedmax":      "'%s' must be %s characters or fewer (excluding whitespace).",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("trimmednotempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("trimmedmin", trimmedLen(func(n, limit int) bool { return n >= limit }))
	_ = v.RegisterValidation("trimmedmax", trimmedLen(func(n, limit int) bool { return n <= limit }))
	return v
}

// trimmedLen compares the rune count of the trimmed string against the tag param.
func trimmedLen(ok func(n, limit int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return ok(n, limit)
	}
}

// validate runs every rule of every field and converts failures into a
// *domainwinery.ValidationError. validator stops a field at its first failing
// tag, so each tag is checked on its own to report all of them.
func (s *Service) validate(in any) error {
	rv := reflect.Indirect(reflect.ValueOf(in))
	rt := rv.Type()

	verr := &domainwinery.ValidationError{}
	for i := range rt.NumField() {
		fld := rt.Field(i)
		rules := fld.Tag.Get("validate")
		if rules == "" || rules == "-" {
			continue
		}
		for _, rule := range strings.Split(rules, ",") {
			err := s.validator.Var(rv.Field(i).Interface(), rule)
			if err == nil {
				continue
			}
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return err
			}
			for _, fe := range fieldErrs {
				verr.Add(jsonName(fld), message(fld.Name, fe))
			}
		}
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		return strings.ToLower(fld.Name)
	}
	return name
}

func message(display string, fe validator.FieldError) string {
	if tmpl, ok := messages[fe.Tag()]; ok {
		if fe.Param() == "" {
			return fmt.Sprintf(tmpl, display)
		}
		return fmt.Sprintf(tmpl, display, fe.Param())
	}
	return fmt.Sprintf("'%s' is invalid.", display)
}
