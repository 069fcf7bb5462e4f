// Package loader provides the default LibraryLoader: a static in-memory
// registry of named libraries, each declaring the functions/operations/
// address targets it provides and the other libraries it depends on.
// Independent dependencies are resolved concurrently with
// golang.org/x/sync/errgroup before the requested library's own
// registration is returned — the one place in this module concurrent I/O
// genuinely earns its keep, since REQUIRE can legitimately fan out across
// several independent library fetches; the evaluator itself still awaits
// the whole call before continuing, so none of this crosses into
// pre-emptive concurrency.
package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openrexx/rexx/interp"
)

// Library describes one REQUIRE-able unit.
type Library struct {
	Name           string
	Version        string
	Dependencies   []string
	Functions      []string
	Operations     []string
	AddressTargets []interp.AddressTargetRegistration
}

// Registry is a LibraryLoader backed by an in-memory table of Libraries
// registered ahead of time (e.g. at process startup).
type Registry struct {
	mu   sync.RWMutex
	libs map[string]Library
}

func NewRegistry() *Registry {
	return &Registry{libs: map[string]Library{}}
}

func (r *Registry) Register(lib Library) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libs[strings.ToUpper(lib.Name)] = lib
}

// Require implements interp.LibraryLoader. asClause is accepted and
// passed through to the caller's bookkeeping untouched (the dispatcher
// uses it as the registration's lookup key); the registry itself never
// needs to interpret it.
func (r *Registry) Require(ctx context.Context, name string, asClause string) (interp.Registrations, error) {
	r.mu.RLock()
	lib, ok := r.libs[strings.ToUpper(name)]
	r.mu.RUnlock()
	if !ok {
		return interp.Registrations{}, fmt.Errorf("library %q is not registered", name)
	}

	if len(lib.Dependencies) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, dep := range lib.Dependencies {
			dep := dep
			g.Go(func() error {
				_, err := r.Require(gctx, dep, "")
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return interp.Registrations{}, fmt.Errorf("REQUIRE %q: dependency failed: %w", name, err)
		}
	}

	return interp.Registrations{
		Functions:      lib.Functions,
		Operations:     lib.Operations,
		AddressTargets: lib.AddressTargets,
		Metadata:       interp.ProviderMetadata{Name: lib.Name, Version: lib.Version},
	}, nil
}
