package patch

import (
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/inventory"
)

// Reason tags the terminal failure of a machine's run, so the summary can
// attribute failures precisely.
type Reason string

const (
	ReasonUnreachable       Reason = "unreachable"
	ReasonSnapshotFailed    Reason = "snapshot failed"
	ReasonUnsupportedDistro Reason = "unsupported distro"
	ReasonUpdateFailed      Reason = "update failed"
	ReasonRebootTimeout     Reason = "reboot wait timed out"
	ReasonHypervisorFailed  Reason = "hypervisor operation failed"
)

type SnapshotOutcome string

const (
	SnapshotNone    SnapshotOutcome = ""
	SnapshotCreated SnapshotOutcome = "created"
	SnapshotFailed  SnapshotOutcome = "failed"
)

// Result is the outcome of one machine's patch workflow. It is built once by
// the workflow and only read afterwards.
type Result struct {
	Machine inventory.Machine
	Host    string

	Connected       bool
	Snapshot        SnapshotOutcome
	Family          distro.Family
	Patched         bool
	UpdatedPackages int
	RebootRequired  bool
	RebootPerformed bool

	Reason Reason
	Detail string
}

func (result Result) Failed() bool {
	return result.Reason != ""
}
