package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

// phoneRegex accepts Israeli mobile numbers: 05 followed by 8 or 9 digits.
var phoneRegex = regexp.MustCompile(`^05\d{8,9}$`)

// Gate validates request payloads and merged records. A failure is always
// ErrValidation with per-field details keyed by the JSON path.
type Gate struct {
	v *validator.Validate
}

func New() *Gate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})

	return &Gate{v: v}
}

func (g *Gate) Struct(s any) error {
	return g.translate(g.v.Struct(s))
}

// Var validates a single value that is not part of a struct, such as a
// plaintext password that is never stored.
func (g *Gate) Var(field string, value any, tag string) error {
	err := g.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return commonerrors.ErrValidation.WithDetails(map[string]any{field: describe(verrs[0])})
	}
	return commonerrors.ErrValidation.WithCause(err)
}

func (g *Gate) translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return commonerrors.ErrValidation.WithCause(err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe)] = describe(fe)
	}
	return commonerrors.ErrValidation.WithDetails(details)
}

// fieldPath strips the root struct name from the namespace, so
// "Account.address.city" becomes "address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "phone":
		return "must be an Israeli phone number starting with 05 with 10-11 digits"
	case "url", "uri":
		return "must be a valid url"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed on " + fe.Tag()
	}
}
