package pricing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"move-cost/core/types"
	cerrors "move-cost/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared request validator.
// Field names in its errors are the JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
		_ = validate.RegisterValidation("finite", isFinite)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateRequest rejects requests that can never be priced as given
func ValidateRequest(req types.MoveRequest) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return cerrors.Wrap(cerrors.TypeInput, "invalid move request", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = fields[name]
	}
	return cerrors.New(cerrors.TypeInput, strings.Join(msgs, "; ")).WithContext("fields", fields)
}

// isFinite fails NaN and both infinities, which decimal cannot represent.
func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
		return true
	}
	v := f.Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "finite":
		return fmt.Sprintf("%s must be a finite number", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
