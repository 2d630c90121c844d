package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"pokemcp/pkg/logging"
)

// Role selects which parts of the configuration Validate checks.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

func (ve *ValidationErrors) addErr(err error) {
	if err == nil {
		return
	}
	if v, ok := err.(ValidationError); ok {
		*ve = append(*ve, v)
		return
	}
	ve.Add("", err.Error())
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateHTTPURL checks that value is an absolute http or https URL.
func ValidateHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be an absolute http(s) URL",
		}
	}
	return nil
}

// ValidatePositiveDuration checks that d is greater than zero.
func ValidatePositiveDuration(field string, d time.Duration) error {
	if d <= 0 {
		return ValidationError{
			Field:   field,
			Value:   d,
			Message: "must be a positive duration",
		}
	}
	return nil
}

// Validate checks the configuration for the given role.
func (c Config) Validate(role Role) error {
	var errs ValidationErrors

	switch role {
	case RoleClient:
		c.validateIdentity(&errs, "client")
		if c.Session.RefreshBuffer < 0 {
			errs.Add("session.refreshBuffer", "must not be negative", c.Session.RefreshBuffer)
		}
		errs.addErr(ValidateRequired("session.tokenFile", c.Session.TokenFile, "client"))
		errs.addErr(ValidateOneOf("client.transport", c.Client.Transport,
			[]string{TransportStreamableHTTP, TransportSSE}))
		errs.addErr(ValidateHTTPURL("client.endpoint", c.Client.Endpoint))

	case RoleServer:
		errs.addErr(ValidateOneOf("server.transport", c.Server.Transport,
			[]string{TransportStdio, TransportSSE, TransportStreamableHTTP}))
		if c.Server.Transport != TransportStdio && (c.Server.Port < 1 || c.Server.Port > 65535) {
			errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
		}
		if c.Server.AuthEnabled {
			c.validateIdentity(&errs, "server authentication")
			c.validateProfiles(&errs)
		}
		errs.addErr(ValidateHTTPURL("pokeapi.baseURL", c.PokeAPI.BaseURL))
		errs.addErr(ValidatePositiveDuration("pokeapi.timeout", c.PokeAPI.Timeout))
		errs.addErr(ValidateOneOf("logging.format", c.Logging.Format,
			[]string{string(logging.FormatText), string(logging.FormatJSON)}))

	default:
		return fmt.Errorf("unknown configuration role %q", role)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c Config) validateIdentity(errs *ValidationErrors, entityType string) {
	if err := ValidateRequired("identity.url", c.Identity.URL, entityType); err != nil {
		errs.addErr(err)
	} else {
		errs.addErr(ValidateHTTPURL("identity.url", c.Identity.URL))
	}
	errs.addErr(ValidateRequired("identity.anonKey", c.Identity.AnonKey, entityType))
	errs.addErr(ValidatePositiveDuration("identity.timeout", c.Identity.Timeout))
}

func (c Config) validateProfiles(errs *ValidationErrors) {
	err := ValidateOneOf("profiles.backend", c.Profiles.Backend,
		[]string{ProfilesNone, ProfilesREST, ProfilesSQLite})
	if err != nil {
		errs.addErr(err)
		return
	}

	switch c.Profiles.Backend {
	case ProfilesREST:
		errs.addErr(ValidateRequired("identity.serviceRoleKey", c.Identity.ServiceRoleKey, "the rest profile backend"))
		errs.addErr(ValidateRequired("profiles.table", c.Profiles.Table, "the rest profile backend"))
	case ProfilesSQLite:
		errs.addErr(ValidateRequired("profiles.sqlitePath", c.Profiles.SQLitePath, "the sqlite profile backend"))
	}
}
