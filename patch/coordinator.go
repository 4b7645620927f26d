package patch

import (
	"context"
	"fmt"
	"log"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/inventory"
)

// Coordinator runs the patch workflow across the inventory and aggregates
// per-machine results into one run summary.
type Coordinator struct {
	machines   []inventory.Machine
	hypervisor Hypervisor
	shell      Shell
	notifier   Notifier
	options    Options
}

func NewCoordinator(machines []inventory.Machine, hypervisor Hypervisor, sh Shell, notifier Notifier, options Options) *Coordinator {
	return &Coordinator{
		machines:   machines,
		hypervisor: hypervisor,
		shell:      sh,
		notifier:   notifier,
		options:    options,
	}
}

// Run processes the inventory one machine at a time and sends the summary
// notification. Per-machine failures are contained in the summary; the
// returned error reflects run cancellation only.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for _, machine := range c.machines {
		if !machine.Patch {
			log.Printf("%v: patching disabled, skipping", machine.Name)
			continue
		}

		if ctx.Err() != nil {
			break
		}

		summary.Add(c.patchMachine(ctx, machine))
	}

	c.notify(ctx, summary)

	return summary, ctx.Err()
}

func (c *Coordinator) patchMachine(ctx context.Context, machine inventory.Machine) Result {
	var result = Result{Machine: machine, Host: machine.FQDN(c.options.Domain)}

	state, err := c.hypervisor.PowerState(ctx, machine.Name)
	if err != nil {
		log.Printf("%v: failed to query power state: %v", machine.Name, err)

		result.Reason = ReasonHypervisorFailed
		result.Detail = fmt.Sprintf("power state query: %v", err)

		return result
	}

	if state == PowerStopped {
		log.Printf("%v: machine is stopped, starting...", machine.Name)

		if err := c.hypervisor.Start(ctx, machine.Name); err != nil {
			log.Printf("%v: start failed: %v", machine.Name, err)

			result.Reason = ReasonHypervisorFailed
			result.Detail = fmt.Sprintf("start failed: %v", err)

			return result
		}

		// The machine was stopped before this run: once start is issued,
		// return it to that state regardless of the patch outcome. The
		// start may still take effect after the running-wait below gives up.
		defer c.shutdownMachine(ctx, machine)

		if err := c.waitRunning(ctx, machine); err != nil {
			log.Printf("%v: %v", machine.Name, err)

			result.Reason = ReasonHypervisorFailed
			result.Detail = err.Error()

			return result
		}
	}

	return NewWorkflow(machine, c.hypervisor, c.shell, c.options).Run(ctx)
}

func (c *Coordinator) waitRunning(ctx context.Context, machine inventory.Machine) error {
	err := wait.PollUntilContextTimeout(ctx, c.options.RetryInterval, c.options.ConnectTimeout, true, func(ctx context.Context) (bool, error) {
		state, err := c.hypervisor.PowerState(ctx, machine.Name)
		if err != nil {
			log.Printf("%v: power state query failed: %v", machine.Name, err)

			return false, nil
		}

		return state == PowerRunning, nil
	})
	if err != nil {
		return fmt.Errorf("not running %v after start", c.options.ConnectTimeout)
	}

	return nil
}

// shutdownMachine issues a shutdown without waiting for it to complete. It
// runs on a cancel-immune context so power state is still restored when the
// run is cancelled mid-machine.
func (c *Coordinator) shutdownMachine(ctx context.Context, machine inventory.Machine) {
	log.Printf("%v: restoring original power state, shutting down...", machine.Name)

	if err := c.hypervisor.Shutdown(context.WithoutCancel(ctx), machine.Name); err != nil {
		log.Printf("%v: failed to shut down: %v", machine.Name, err)
	}
}

// notify sends the run summary. A notification failure is logged, never
// reported as a patch failure.
func (c *Coordinator) notify(ctx context.Context, summary Summary) {
	if c.notifier == nil {
		return
	}

	if err := c.notifier.Send(context.WithoutCancel(ctx), summary.Message()); err != nil {
		log.Printf("Failed to send summary notification: %v", err)
	}
}
