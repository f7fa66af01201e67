// Package validator provides a pluggable validator registry and the
// synthesizer that turns a field's declarative rules into form validators
package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/nexuscrm/backoffice/pkg/utils"
)

// ValidatorFunc is the signature for validator functions
// Takes a value and optional configuration, returns an error if validation fails
type ValidatorFunc func(value interface{}, config map[string]interface{}) error

// Registry holds registered validators
type Registry struct {
	validators map[string]ValidatorFunc
	patterns   map[string]*regexp.Regexp
	mu         sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Scheme is optional; host needs at least one dot.
var urlPattern = regexp.MustCompile(`^(?i)(https?://)?([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}(:\d{1,5})?(/[^\s]*)?$`)

var (
	nonDigits    = regexp.MustCompile(`[^\d]`)
	alphanumeric = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// GetRegistry returns the singleton validator registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with the built-in validators registered
func NewRegistry() *Registry {
	r := &Registry{
		validators: make(map[string]ValidatorFunc),
		patterns:   make(map[string]*regexp.Regexp),
	}
	r.registerBuiltins()
	return r
}

// Register adds a validator to the registry
func (r *Registry) Register(name string, fn ValidatorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Get returns a validator by name
func (r *Registry) Get(name string) (ValidatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[name]
	return fn, ok
}

// Validate runs a named validator
func (r *Registry) Validate(name string, value interface{}, config map[string]interface{}) error {
	fn, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("validator '%s' not found", name)
	}
	return fn(value, config)
}

// List returns all registered validator names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	return names
}

// compiled returns the anchored form of a pattern, caching compilations
func (r *Registry) compiled(pattern string) (*regexp.Regexp, error) {
	r.mu.RLock()
	re, ok := r.patterns[pattern]
	r.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.patterns[pattern] = re
	r.mu.Unlock()
	return re, nil
}

// registerBuiltins registers all built-in validators.
// Every validator except "required" lets empty values through.
func (r *Registry) registerBuiltins() {
	r.Register("required", func(value interface{}, config map[string]interface{}) error {
		if utils.IsEmpty(value) {
			return fmt.Errorf("value is required")
		}
		return nil
	})

	// Email validator
	r.Register("email", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		addr, err := mail.ParseAddress(str)
		if err != nil || addr.Address != str {
			return fmt.Errorf("invalid email format")
		}
		return nil
	})

	// URL validator
	r.Register("url", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		if !urlPattern.MatchString(str) {
			return fmt.Errorf("invalid URL")
		}
		return nil
	})

	// Phone validator (basic)
	r.Register("phone", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		cleaned := nonDigits.ReplaceAllString(str, "")
		if len(cleaned) < 7 || len(cleaned) > 15 {
			return fmt.Errorf("phone number must have 7-15 digits")
		}
		return nil
	})

	// Regex validator, matched against the whole value
	r.Register("regex", func(value interface{}, config map[string]interface{}) error {
		if utils.IsEmpty(value) {
			return nil
		}
		pattern, _ := config["pattern"].(string)
		if pattern == "" {
			return nil
		}
		re, err := r.compiled(pattern)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %v", err)
		}
		if !re.MatchString(utils.ToString(value)) {
			if msg, ok := config["message"].(string); ok && msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return fmt.Errorf("value does not match required pattern")
		}
		return nil
	})

	// Length validator, counted in characters
	r.Register("length", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		length := utf8.RuneCountInString(str)
		if min, ok := config["min"].(int); ok && length < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		if max, ok := config["max"].(int); ok && length > max {
			return fmt.Errorf("must be at most %d characters", max)
		}
		return nil
	})

	// Numeric range validator; non-numeric input is left to other validators
	r.Register("range", func(value interface{}, config map[string]interface{}) error {
		if utils.IsEmpty(value) {
			return nil
		}
		num, ok := utils.ToFloat(value)
		if !ok {
			return nil
		}
		if min, ok := config["min"].(float64); ok && num < min {
			return fmt.Errorf("must be at least %.2f", min)
		}
		if max, ok := config["max"].(float64); ok && num > max {
			return fmt.Errorf("must be at most %.2f", max)
		}
		return nil
	})

	r.Register("alphanumeric", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		if !alphanumeric.MatchString(str) {
			return fmt.Errorf("must contain only letters and numbers")
		}
		return nil
	})

	// Card numbers: 13-19 digits passing the Luhn checksum
	r.Register("creditcard", func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || str == "" {
			return nil
		}
		digits := nonDigits.ReplaceAllString(str, "")
		if len(digits) < 13 || len(digits) > 19 {
			return fmt.Errorf("invalid credit card number length")
		}
		if !luhnValid(digits) {
			return fmt.Errorf("invalid credit card number")
		}
		return nil
	})
}

// luhnValid doubles every second digit from the right
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Package-level convenience functions

// Register adds a validator to the default registry
func Register(name string, fn ValidatorFunc) {
	GetRegistry().Register(name, fn)
}

// Validate runs a named validator using the default registry
func Validate(name string, value interface{}, config map[string]interface{}) error {
	return GetRegistry().Validate(name, value, config)
}
