package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexuscrm/backoffice/internal/domain"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// FormSaver persists a submitted payload and returns the stored record
type FormSaver func(ctx context.Context, payload FormPayload) (models.Record, error)

// FormSession tracks one form from loading to saved. View-mode sessions
// reject edits and submission and skip validation.
type FormSession struct {
	engine  *FormEngine
	machine *domain.FormStateMachine

	mu      sync.Mutex
	state   domain.FormState
	def     *FormDefinition
	values  map[string]interface{}
	errs    errors.FieldErrors
	lastErr error
	saved   models.Record
}

// NewFormSession starts a session in the loading state
func NewFormSession(engine *FormEngine) *FormSession {
	return &FormSession{
		engine:  engine,
		machine: domain.NewFormStateMachine(),
		state:   domain.FormStateLoading,
	}
}

func (s *FormSession) transition(via domain.FormTransition) error {
	next, err := s.machine.Transition(s.state, via)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Load installs the built form and its initial values
func (s *FormSession) Load(def *FormDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(domain.TransitionLoaded); err != nil {
		return err
	}
	s.def = def
	s.values = def.Values()
	return nil
}

// LoadFailed records that the form could not be built
func (s *FormSession) LoadFailed(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(domain.TransitionFail); err != nil {
		return err
	}
	s.lastErr = cause
	return nil
}

// State returns the current lifecycle state
func (s *FormSession) State() domain.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the mode the form was built in
func (s *FormSession) Mode() constants.FormMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def == nil {
		return ""
	}
	return s.def.Mode
}

// Err returns the error behind the error state
func (s *FormSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Errors returns the control errors of the last validation
func (s *FormSession) Errors() errors.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// Values returns a copy of the current control values
func (s *FormSession) Values() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetValue edits one control
func (s *FormSession) SetValue(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def != nil && s.def.Mode == constants.FormModeView {
		return errors.NewValidationError(name, "form is read-only")
	}
	if _, ok := s.values[name]; !ok {
		return errors.NewValidationError(name, "unknown control")
	}
	if err := s.transition(domain.TransitionEdit); err != nil {
		return err
	}
	s.values[name] = value
	return nil
}

// Validate checks every control. On failure the session returns to
// editing and the failures are returned; nil means valid.
func (s *FormSession) Validate() errors.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *FormSession) validate() errors.FieldErrors {
	if s.def == nil || s.def.Mode == constants.FormModeView {
		return nil
	}
	if s.state != domain.FormStateValidating {
		if err := s.transition(domain.TransitionValidate); err != nil {
			return nil
		}
	}
	s.errs = s.engine.Validate(s.def.Fields, s.values)
	if s.errs != nil {
		_ = s.transition(domain.TransitionEdit)
	}
	return s.errs
}

// Payload rebuilds the record changes from the current control values
func (s *FormSession) Payload() FormPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def == nil {
		return ReconstructPayload(nil, nil)
	}
	return ReconstructPayload(s.def.Fields, s.values)
}

// Submit validates and hands the payload to save. Invalid forms return
// their FieldErrors and never reach save.
func (s *FormSession) Submit(ctx context.Context, save FormSaver) (models.Record, error) {
	s.mu.Lock()
	if s.def == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("form is not loaded")
	}
	if s.def.Mode == constants.FormModeView {
		s.mu.Unlock()
		return nil, errors.NewValidationError("mode", "view forms cannot be submitted")
	}
	if errs := s.validate(); errs != nil {
		s.mu.Unlock()
		return nil, errs
	}
	if err := s.transition(domain.TransitionSubmit); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	payload := ReconstructPayload(s.def.Fields, s.values)
	s.mu.Unlock()

	// The lock is released while saving; the saving state blocks edits
	record, err := save(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		_ = s.transition(domain.TransitionFail)
		return nil, err
	}
	s.saved = record
	_ = s.transition(domain.TransitionSucceed)
	return record, nil
}

// Retry leaves the error state
func (s *FormSession) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(domain.TransitionRetry); err != nil {
		return err
	}
	s.lastErr = nil
	return nil
}

// Saved returns the record stored by the last successful submit
func (s *FormSession) Saved() models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
