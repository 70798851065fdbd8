// Package validate checks raw request values against the per-kind create
// and update schemas. Only the first violation is reported.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"shopcms/internal/catalog"
)

type Validator struct {
	decoder  *schema.Decoder
	validate *validator.Validate
}

func New() *Validator {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(tagName)

	return &Validator{decoder: decoder, validate: validate}
}

// Create validates a create request of kind. Booleans absent from values
// take their default. Categories always get a (possibly empty)
// subCategories list.
func (v *Validator) Create(kind catalog.Kind, values map[string][]string) (catalog.Input, error) {
	p, ok := registry[kind]
	if !ok {
		return catalog.Input{}, fmt.Errorf("unknown kind %q", kind)
	}
	return v.check(kind, values, p.create(), true)
}

// Update validates a partial update. Absent fields are left out of the
// result; subCategories stays nil unless the key was sent.
func (v *Validator) Update(kind catalog.Kind, values map[string][]string) (catalog.Input, error) {
	p, ok := registry[kind]
	if !ok {
		return catalog.Input{}, fmt.Errorf("unknown kind %q", kind)
	}
	if p.update == nil {
		return catalog.Input{}, catalog.ErrNotUpdatable
	}
	return v.check(kind, values, p.update(), false)
}

func (v *Validator) check(kind catalog.Kind, values map[string][]string, dst any, create bool) (catalog.Input, error) {
	if err := v.decoder.Decode(dst, values); err != nil {
		return catalog.Input{}, decodeError(dst, err)
	}
	if err := v.validate.Struct(dst); err != nil {
		return catalog.Input{}, firstError("", err)
	}

	in := catalog.Input{Fields: toFields(dst)}
	if create {
		for name, def := range catalog.MustSchema(kind).Defaults {
			if _, ok := in.Fields[name]; !ok {
				in.Fields[name] = def
			}
		}
	}
	if !catalog.MustSchema(kind).SubCategories {
		return in, nil
	}

	raw, sent := values["subCategories"]
	switch {
	case sent && len(raw) > 0:
		subs, err := v.SubCategories(raw[len(raw)-1])
		if err != nil {
			return catalog.Input{}, err
		}
		in.SubCategories = subs
	case create:
		in.SubCategories = []catalog.SubCategory{}
	}
	return in, nil
}

// tagName reports fields by their form key.
func tagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("schema"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func firstError(prefix string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := prefix + fe.Field()
	return &catalog.ValidationError{Field: field, Reason: message(field, fe)}
}

func message(field string, fe validator.FieldError) string {
	label := fmt.Sprintf("%q", field)
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if isString {
			return fmt.Sprintf("%s length must be at least %s characters long", label, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", label, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return label + " must be a positive number"
		}
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "url":
		return label + " must be a valid uri"
	case "email":
		return label + " must be a valid email"
	default:
		return label + " is invalid"
	}
}

// decodeError reports the first field, in declaration order, whose value
// could not be converted.
func decodeError(dst any, err error) error {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return &catalog.ValidationError{Reason: err.Error()}
	}

	for _, name := range fieldNames(dst) {
		ferr, ok := multi[name]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%q", name)
		var conv schema.ConversionError
		if errors.As(ferr, &conv) && conv.Type != nil && conv.Type.Kind() == reflect.Bool {
			return &catalog.ValidationError{Field: name, Reason: label + " must be a boolean"}
		}
		return &catalog.ValidationError{Field: name, Reason: label + " must be a number"}
	}
	return &catalog.ValidationError{Reason: multi.Error()}
}

func fieldNames(dst any) []string {
	t := reflect.TypeOf(dst).Elem()
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := tagName(t.Field(i)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// toFields copies every set field of a decoded payload into catalog.Fields.
func toFields(dst any) catalog.Fields {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()

	fields := catalog.Fields{}
	for i := 0; i < rt.NumField(); i++ {
		name := tagName(rt.Field(i))
		if name == "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		switch fv.Kind() {
		case reflect.String:
			fields[name] = fv.String()
		case reflect.Float32, reflect.Float64:
			fields[name] = fv.Float()
		case reflect.Bool:
			fields[name] = fv.Bool()
		}
	}
	return fields
}
