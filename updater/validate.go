package updater

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks a record before any statement is built.
type Validator interface {
	Validate(ctx context.Context, rec Record) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, rec Record) error

func (f ValidatorFunc) Validate(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// TagValidator validates records with go-playground/validator.
// Struct records are checked against their `validate:` tags; map records against Rules,
// a column → rule string map such as {"name": "required,max=64"}.
type TagValidator struct {
	validate *validator.Validate
	Rules    map[string]string
}

// NewTagValidator creates a validator. rules may be nil when only struct records are used.
func NewTagValidator(rules map[string]string) *TagValidator {
	return &TagValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		Rules:    rules,
	}
}

// Engine exposes the underlying validator for registering custom tags.
func (v *TagValidator) Engine() *validator.Validate {
	return v.validate
}

func (v *TagValidator) Validate(ctx context.Context, rec Record) error {
	switch r := rec.(type) {
	case *StructRecord:
		return v.validate.StructCtx(ctx, r.Target())
	case *MapRecord:
		return v.validateMap(ctx, r.Values())
	}

	return nil
}

func (v *TagValidator) validateMap(ctx context.Context, values map[string]any) error {
	if len(v.Rules) == 0 {
		return nil
	}

	rules := make(map[string]any, len(v.Rules))
	for column, rule := range v.Rules {
		rules[column] = rule
	}

	failures := v.validate.ValidateMapCtx(ctx, values, rules)
	if len(failures) == 0 {
		return nil
	}

	columns := make([]string, 0, len(failures))
	for column := range failures {
		columns = append(columns, column)
	}

	sort.Strings(columns)

	messages := make([]string, len(columns))
	for i, column := range columns {
		messages[i] = fmt.Sprintf("%s: %v", column, failures[column])
	}

	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
