package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"k8s.io/apimachinery/pkg/labels"
)

// namespaceRegex validates Kubernetes namespace names per RFC 1123.
var namespaceRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(configSchemaCUE, cue.Filename("config.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}, nil
}

// Validate validates the given configuration.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	value := v.ctx.CompileBytes(data, cue.Filename("config.json"))
	if value.Err() != nil {
		return fmt.Errorf("compiling config: %w", value.Err())
	}

	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			errs = append(errs, ValidationError{
				Field:   strings.Join(e.Path(), "."),
				Message: fmt.Sprintf(format, args...),
			})
		}
	}

	if cfg.ExtPlugin.Enabled && cfg.Source.Kind == SourceKindDir && strings.TrimSpace(cfg.ExtPlugin.Path) == "" {
		errs = append(errs, ValidationError{
			Field:   "extPlugin.path",
			Message: "must be set when the directory source is enabled",
		})
	}

	if err := ValidateNamespace(cfg.Source.Kubernetes.Namespace); err != nil {
		errs = append(errs, *err)
	}

	if sel := cfg.Source.Kubernetes.LabelSelector; sel != "" {
		if _, err := labels.Parse(sel); err != nil {
			errs = append(errs, ValidationError{
				Field:   "source.kubernetes.labelSelector",
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	loader := NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}

// ValidateNamespace checks if a namespace name is valid.
func ValidateNamespace(namespace string) *ValidationError {
	if namespace == "" {
		return nil
	}

	if !namespaceRegex.MatchString(namespace) {
		return &ValidationError{
			Field:   "source.kubernetes.namespace",
			Message: "must be a valid Kubernetes namespace name (lowercase alphanumeric with hyphens)",
		}
	}

	if len(namespace) > 63 {
		return &ValidationError{
			Field:   "source.kubernetes.namespace",
			Message: "must be at most 63 characters",
		}
	}

	return nil
}
