package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"orderprep/pkg/contracts/domain"
)

// RecordValidator checks raw order rows against the struct tags of domain.RawOrder
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator creates a validator that reports fields by their column names
func NewRecordValidator() *RecordValidator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RecordValidator{validate: v}
}

// MissingFields returns the sorted names of required columns that are empty in raw.
// A nil result means the row is complete.
func (r *RecordValidator) MissingFields(raw *domain.RawOrder) ([]string, error) {
	err := r.validate.Struct(raw)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate order row: %w", err)
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	sort.Strings(missing)
	return missing, nil
}

// RequiredColumns returns the canonical names of the columns every dataset must carry
func (r *RecordValidator) RequiredColumns() []string {
	t := reflect.TypeOf(domain.RawOrder{})
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.Contains(f.Tag.Get("validate"), "required") {
			cols = append(cols, strings.SplitN(f.Tag.Get("json"), ",", 2)[0])
		}
	}
	return cols
}
