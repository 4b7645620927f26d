package patch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/inventory"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/proc"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

// Workflow drives one machine through the full patch sequence. Every failure
// is captured in the returned Result; the workflow never aborts the run.
type Workflow struct {
	machine    inventory.Machine
	host       string
	hypervisor Hypervisor
	shell      Shell
	options    Options
}

func NewWorkflow(machine inventory.Machine, hypervisor Hypervisor, sh Shell, options Options) *Workflow {
	return &Workflow{
		machine:    machine,
		host:       machine.FQDN(options.Domain),
		hypervisor: hypervisor,
		shell:      sh,
		options:    options,
	}
}

// runner binds the shell transport to this workflow's machine.
type runner struct {
	shell Shell
	host  string
}

func (r runner) Run(ctx context.Context, command string) (shell.Result, error) {
	return r.shell.Run(ctx, r.host, command)
}

func (w *Workflow) Run(ctx context.Context) Result {
	var result = Result{Machine: w.machine, Host: w.host}

	log.Printf("%v: waiting for ssh to become available...", w.host)

	if err := w.waitReachable(ctx, w.options.ConnectTimeout); err != nil {
		log.Printf("%v: ssh not available after %v, skipping patch", w.host, w.options.ConnectTimeout)

		return w.fail(result, ReasonUnreachable, fmt.Sprintf("ssh not available after %v", w.options.ConnectTimeout))
	}

	result.Connected = true

	log.Printf("%v: ssh is available", w.host)

	if err := w.snapshot(ctx); err != nil {
		log.Printf("%v: %v, skipping patch", w.host, err)
		result.Snapshot = SnapshotFailed

		return w.fail(result, ReasonSnapshotFailed, err.Error())
	}

	result.Snapshot = SnapshotCreated

	var run = runner{shell: w.shell, host: w.host}

	d, ok := probeDistro(ctx, run)
	if !ok {
		log.Printf("%v: no supported package manager found, skipping patch", w.host)

		return w.fail(result, ReasonUnsupportedDistro, "no supported package manager found")
	}

	result.Family = d.Family()

	status, err := d.Update(ctx, run)

	if w.options.ShowPatchOutput && status.Output != "" {
		log.Printf("%v: update output:\n%v", w.host, status.Output)
	}

	if err != nil {
		log.Printf("%v: update failed: %v", w.host, err)

		// A failed update gets no reboot probe: the machine is left as-is
		// for a human, with the pre-update snapshot intact.
		return w.fail(result, ReasonUpdateFailed, err.Error())
	}

	result.Patched = true
	result.UpdatedPackages = status.UpdatedPackages

	log.Printf("%v: %v packages updated", w.host, status.UpdatedPackages)

	return w.checkReboot(ctx, run, d, result)
}

func (w *Workflow) fail(result Result, reason Reason, detail string) Result {
	result.Reason = reason
	result.Detail = detail

	return result
}

func (w *Workflow) waitReachable(ctx context.Context, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, w.options.RetryInterval, timeout, true, func(ctx context.Context) (bool, error) {
		return w.shell.Reachable(ctx, w.host), nil
	})
}

// snapshot replaces the machine's latest snapshot with a fresh one and
// verifies it exists. Patching never proceeds without a verified snapshot;
// a failed delete is harmless since no snapshot may exist yet.
func (w *Workflow) snapshot(ctx context.Context) error {
	if deleted, err := w.hypervisor.DeleteLatestSnapshot(ctx, w.machine.Name); err != nil {
		log.Printf("%v: failed to delete previous snapshot: %v", w.host, err)
	} else if deleted {
		log.Printf("%v: deleted previous snapshot", w.host)
	} else {
		log.Printf("%v: no previous snapshot found", w.host)
	}

	var label = "patch-" + uuid.NewString()

	log.Printf("%v: creating snapshot %v...", w.host, label)

	if err := w.hypervisor.CreateSnapshot(ctx, w.machine.Name, label); err != nil {
		return fmt.Errorf("snapshot creation failed: %v", err)
	} else if exists, err := w.hypervisor.HasSnapshot(ctx, w.machine.Name, label); err != nil {
		return fmt.Errorf("snapshot verification failed: %v", err)
	} else if !exists {
		return fmt.Errorf("snapshot %v was not found after creation", label)
	}

	return nil
}

func (w *Workflow) checkReboot(ctx context.Context, run runner, d distro.Distro, result Result) Result {
	log.Printf("%v: checking if a reboot is required...", w.host)

	required, err := d.RebootRequired(ctx, run)
	if err != nil {
		log.Printf("%v: reboot check failed: %v", w.host, err)
		result.Detail = fmt.Sprintf("reboot check failed: %v", err)

		return result
	}

	if !required {
		log.Printf("%v: no reboot required", w.host)

		return result
	}

	result.RebootRequired = true

	if !w.machine.Reboot {
		log.Printf("%v: reboot required, but reboots are not enabled for this machine", w.host)

		return result
	}

	log.Printf("%v: reboot required, rebooting...", w.host)

	bootTime, err := w.bootTime(ctx, run)
	if err != nil {
		log.Printf("%v: failed to read boot time: %v", w.host, err)
	}

	if err := w.hypervisor.Reboot(ctx, w.machine.Name); err != nil {
		return w.fail(result, ReasonHypervisorFailed, fmt.Sprintf("reboot: %v", err))
	}

	if err := w.waitReachable(ctx, w.options.RebootTimeout); err != nil {
		log.Printf("%v: ssh not available %v after reboot", w.host, w.options.RebootTimeout)

		return w.fail(result, ReasonRebootTimeout, fmt.Sprintf("ssh not available %v after reboot", w.options.RebootTimeout))
	}

	result.RebootPerformed = true

	if bootTime.IsZero() {
		return result
	}

	if rebootedAt, err := w.bootTime(ctx, run); err != nil {
		log.Printf("%v: failed to read boot time after reboot: %v", w.host, err)
	} else if !rebootedAt.After(bootTime) {
		log.Printf("%v: boot time unchanged after reboot", w.host)
	} else {
		log.Printf("%v: rebooted, up since %v", w.host, rebootedAt)
	}

	return result
}

func (w *Workflow) bootTime(ctx context.Context, run runner) (time.Time, error) {
	result, err := run.Run(ctx, "cat /proc/stat")

	if err != nil {
		return time.Time{}, err
	} else if result.ExitCode != 0 {
		return time.Time{}, fmt.Errorf("cat /proc/stat failed with exit code %v", result.ExitCode)
	}

	stat, err := proc.ParseStat(strings.NewReader(result.Stdout))
	if err != nil {
		return time.Time{}, err
	}

	return stat.BootTime, nil
}
