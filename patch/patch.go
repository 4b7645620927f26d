// Package patch drives machines through the patch sequence: power on, wait
// for ssh, snapshot, update, reboot if required, restore power state.
package patch

import (
	"context"
	"time"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

type PowerState string

const (
	PowerStopped PowerState = "stopped"
	PowerRunning PowerState = "running"
)

// Hypervisor is the power and snapshot control surface, addressed by VM name.
type Hypervisor interface {
	PowerState(ctx context.Context, name string) (PowerState, error)
	Start(ctx context.Context, name string) error
	Shutdown(ctx context.Context, name string) error
	Reboot(ctx context.Context, name string) error
	DeleteLatestSnapshot(ctx context.Context, name string) (bool, error)
	CreateSnapshot(ctx context.Context, name string, label string) error
	HasSnapshot(ctx context.Context, name string, label string) (bool, error)
}

// Shell is the remote command transport, addressed by FQDN.
type Shell interface {
	Reachable(ctx context.Context, host string) bool
	Run(ctx context.Context, host string, command string) (shell.Result, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Options struct {
	// Domain suffix used to resolve machine names to ssh addresses.
	Domain string

	// ConnectTimeout bounds the total ssh availability wait; RetryInterval
	// is the pause between probes. Both also bound the power-state wait
	// after starting a stopped machine.
	ConnectTimeout time.Duration
	RetryInterval  time.Duration

	// RebootTimeout bounds the post-reboot availability wait.
	RebootTimeout time.Duration

	// ShowPatchOutput logs the update command's stdout.
	ShowPatchOutput bool
}
