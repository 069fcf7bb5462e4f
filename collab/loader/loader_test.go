package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/interp"
)

func TestRequireReturnsRegisteredLibrary(t *testing.T) {
	r := NewRegistry()
	r.Register(Library{
		Name:      "STRINGS",
		Version:   "1.0.0",
		Functions: []string{"UPPER", "LOWER"},
	})

	reg, err := r.Require(context.Background(), "strings", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"UPPER", "LOWER"}, reg.Functions)
	assert.Equal(t, "STRINGS", reg.Metadata.Name)
	assert.Equal(t, "1.0.0", reg.Metadata.Version)
}

func TestRequireUnknownLibraryErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Require(context.Background(), "nope", "")
	require.Error(t, err)
}

func TestRequireResolvesDependenciesConcurrently(t *testing.T) {
	r := NewRegistry()
	r.Register(Library{Name: "BASE", Functions: []string{"CORE"}})
	r.Register(Library{Name: "APP", Dependencies: []string{"BASE"}, Functions: []string{"RUN"}})

	reg, err := r.Require(context.Background(), "app", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"RUN"}, reg.Functions)
}

func TestRequireFailingDependencyPropagates(t *testing.T) {
	r := NewRegistry()
	r.Register(Library{Name: "APP", Dependencies: []string{"MISSING"}, Functions: []string{"RUN"}})

	_, err := r.Require(context.Background(), "app", "")
	require.Error(t, err)
}

var _ interp.LibraryLoader = (*Registry)(nil)
