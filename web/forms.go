package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"book-exchange/library"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Required fields are pointers: present with any value, including "",
// satisfies `required`; an absent key leaves them nil.

type registerForm struct {
	Username *string `form:"username" validate:"required"`
	Password *string `form:"password" validate:"required"`
	Confirm  *string `form:"confirm" validate:"required"`
}

type loginForm struct {
	Username *string `form:"username" validate:"required"`
	Password *string `form:"password" validate:"required"`
}

type listForm struct {
	Title    *string `form:"title" validate:"required"`
	Author   *string `form:"author" validate:"required"`
	CoverURL string  `form:"coverUrl"`
}

type rateForm struct {
	Title *string `form:"title" validate:"required"`
	Stars *string `form:"stars" validate:"required"`
}

// stars parses the submitted rating. Any integer is accepted.
func (f rateForm) stars() (int, error) {
	var raw string
	if f.Stars != nil {
		raw = *f.Stars
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: stars must be an integer", library.ErrInvalidInput)
	}
	return n, nil
}

type contactForm struct {
	Email   *string `form:"email" validate:"required"`
	Message *string `form:"message" validate:"required"`
}

// value dereferences a decoded field. Validated required fields are never nil.
func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeForm fills the fields of dst from the request form using their
// `form` tags, then validates dst. Only an absent key counts as missing.
// Failures wrap library.ErrInvalidInput.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", library.ErrInvalidInput, err)
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("form")
		values, ok := r.Form[name]
		if name == "" || !ok || len(values) == 0 {
			continue
		}
		field := v.Field(i)
		switch {
		case field.Kind() == reflect.String:
			field.SetString(values[0])
		case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.String:
			s := values[0]
			field.Set(reflect.ValueOf(&s))
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, formName(t, fe.StructField()))
			}
			return fmt.Errorf("%w: missing %s", library.ErrInvalidInput, strings.Join(missing, ", "))
		}
		return err
	}
	return nil
}

func formName(t reflect.Type, field string) string {
	if f, ok := t.FieldByName(field); ok {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
	}
	return field
}
