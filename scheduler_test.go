package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsOnce(t *testing.T) {
	scheduler, err := makeScheduler(Options{})
	assert.NoErrorf(t, err, "makeScheduler")

	var runs int

	err = scheduler.Run(context.Background(), func() error {
		runs++
		return nil
	})

	assert.NoErrorf(t, err, "Run")
	assert.Equal(t, 1, runs)
}

func TestMakeSchedulerInvalid(t *testing.T) {
	_, err := makeScheduler(Options{Schedule: "every full moon"})

	assert.Error(t, err)
}

func TestSchedulerCancelled(t *testing.T) {
	scheduler, err := makeScheduler(Options{Schedule: "@every 1h"})
	assert.NoErrorf(t, err, "makeScheduler")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = scheduler.Run(ctx, func() error {
		t.Fatal("should not run")
		return nil
	})

	assert.Equal(t, context.Canceled, err)
}
