// Package ruleset holds the form rule engine the service is currently using
// and reloads it when the rule table file changes on disk.
package ruleset

import (
	"fmt"
	"sync/atomic"

	"change-intake-service/internal/config"
	"change-intake-service/internal/formrules"
)

// Source hands out the engine to use for one operation.
type Source interface {
	Engine() *formrules.Engine
}

// Store is a Source whose engine can be swapped at runtime.
type Store struct {
	current atomic.Pointer[formrules.Engine]
}

// NewStore creates a store serving engine.
func NewStore(engine *formrules.Engine) *Store {
	s := &Store{}
	s.current.Store(engine)
	return s
}

// Engine returns the current engine.
func (s *Store) Engine() *formrules.Engine {
	return s.current.Load()
}

// Replace swaps in a new engine. Operations already running keep the engine
// they started with.
func (s *Store) Replace(engine *formrules.Engine) {
	s.current.Store(engine)
}

// LoadEngine builds an engine over the reference catalog and mapping with
// the rule table stored at path, or the built-in table when path is empty.
func LoadEngine(path string) (*formrules.Engine, error) {
	table, err := config.LoadRuleTable(path)
	if err != nil {
		return nil, err
	}
	engine, err := formrules.NewEngine(formrules.DefaultCatalog(), table, formrules.DefaultMapping())
	if err != nil {
		return nil, fmt.Errorf("load rule table %s: %w", path, err)
	}
	return engine, nil
}
