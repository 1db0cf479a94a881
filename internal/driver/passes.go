package driver

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"flowscope/internal/analysis"
	"flowscope/internal/infer"
	"flowscope/internal/resolve"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() analysis.Pass{
		resolve.Name: func() analysis.Pass { return resolve.Pass{} },
		infer.Name:   func() analysis.Pass { return infer.Pass{} },
	}
)

// RegisterPass makes a pass available to BuildPipeline under its name.
func RegisterPass(name string, factory func() analysis.Pass) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// PassNames lists the registered passes, sorted.
func PassNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// BuildPipeline instantiates the named passes in order. Dependencies are
// not reordered; a pass listed before its dependency fails when run.
func BuildPipeline(names []string) (analysis.Pipeline, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p := make(analysis.Pipeline, 0, len(names))
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %v)", analysis.ErrUnknownPass, name, slices.Sorted(maps.Keys(registry)))
		}
		p = append(p, factory())
	}
	return p, nil
}
