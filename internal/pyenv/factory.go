package pyenv

import (
	"fmt"
)

// FactoryFunc is a function that creates a new environment manager instance
type FactoryFunc func(customPath string) (EnvManager, error)

var registry = make(map[string]FactoryFunc)

// Register registers an environment manager factory function
func Register(name string, factory FactoryFunc) {
	registry[name] = factory
}

// New creates an environment manager instance based on type
func New(mgrType string) (EnvManager, error) {
	return NewWithPath(mgrType, "")
}

// NewWithPath creates an environment manager instance with a custom binary path
func NewWithPath(mgrType string, customPath string) (EnvManager, error) {
	factory, ok := registry[mgrType]
	if !ok {
		return nil, fmt.Errorf("unsupported environment manager: %s", mgrType)
	}
	return factory(customPath)
}
