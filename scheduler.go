package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron"
)

type Scheduler struct {
	option   string
	schedule cron.Schedule
}

func makeScheduler(options Options) (Scheduler, error) {
	var scheduler = Scheduler{
		option: options.Schedule,
	}

	if options.Schedule == "" {
		log.Printf("No --schedule given, will run once")

		return scheduler, nil
	} else if schedule, err := cron.Parse(options.Schedule); err != nil {
		return scheduler, fmt.Errorf("Invalid --schedule=%v: %v", options.Schedule, err)
	} else {
		scheduler.schedule = schedule
	}

	return scheduler, nil
}

// Run executes f once, or repeatedly per the cron schedule until the context
// is cancelled.
func (scheduler Scheduler) Run(ctx context.Context, f func() error) error {
	if scheduler.schedule == nil {
		return f()
	}

	for {
		var next = scheduler.schedule.Next(time.Now())

		log.Printf("Using --schedule=%#v, next patch run at: %v (in %v)", scheduler.option, next, time.Until(next).Round(time.Second))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		t0 := time.Now()

		if err := f(); err != nil {
			return err
		}

		log.Printf("Patch run completed in %v", time.Since(t0).Round(time.Second))
	}
}
