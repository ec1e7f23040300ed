package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	id  string
	run func(ctx context.Context) error
}

func (f *fakeService) ID() string { return f.id }

func (f *fakeService) Run(ctx context.Context) error { return f.run(ctx) }

func TestLaunch(t *testing.T) {
	failure := errors.New("boom")
	Register(&fakeService{id: "waits", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	Register(&fakeService{id: "fails", run: func(ctx context.Context) error {
		return failure
	}})

	err := Launch(context.Background(), []string{"waits", "fails"})
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "service fails")

	_, ok := Registered("waits")
	assert.True(t, ok)
}

func TestLaunchUnknown(t *testing.T) {
	err := Launch(context.Background(), []string{"nope"})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, &fakeService{id: "x", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.NoError(t, err)
}

func TestSetupLogging(t *testing.T) {
	require.NoError(t, SetupLogging("debug"))
	assert.Error(t, SetupLogging("loud"))
}
