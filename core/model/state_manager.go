// Package model provides the estimator contracts and fitted-state bookkeeping
// shared by the estimators and transformers in this module.
package model

import (
	"sync"

	"github.com/YuminosukeSato/playertier/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Estimators hold one by composition instead of embedding a base struct.
type StateManager struct {
	mu     sync.RWMutex
	fitted bool

	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions sets the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError naming the model and the method
// that was called too early.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks that X has the feature count seen during fitting.
func (s *StateManager) RequireFeatures(op string, got int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nFeatures != got {
		return errors.NewDimensionError(op, s.nFeatures, got, 1)
	}
	return nil
}

// ModelState represents the complete state of a model.
type ModelState struct {
	Fitted    bool `json:"fitted" yaml:"fitted"`
	NFeatures int  `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	NSamples  int  `json:"n_samples,omitempty" yaml:"n_samples,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Fitted:    s.fitted,
		NFeatures: s.nFeatures,
		NSamples:  s.nSamples,
	}
}
