package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	a, b := &stubJob{name: "a"}, &stubJob{name: "b"}
	registry := NewRegistry(a, nil)
	require.NoError(t, registry.Register(b))

	jobs := registry.Jobs()
	require.Equal(t, []Job{a, b}, jobs)

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	var registry Registry
	require.NoError(t, registry.Register(&stubJob{name: "stock-reconcile"}))
	require.Error(t, registry.Register(&stubJob{name: "stock-reconcile"}))
	require.Len(t, registry.Jobs(), 1)

	require.Panics(t, func() {
		NewRegistry(&stubJob{name: "x"}, &stubJob{name: "x"})
	})
}
