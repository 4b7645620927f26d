package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/inventory"
)

func TestSummaryOk(t *testing.T) {
	var summary Summary

	summary.Add(Result{Host: "db01.example.com", Connected: true, Patched: true, UpdatedPackages: 3})

	assert.True(t, summary.Ok())
	assert.Equal(t, 1, summary.Attempted())
	assert.Len(t, summary.Patched(), 1)
	assert.Empty(t, summary.Failed())
}

func TestSummaryNeedsManualReboot(t *testing.T) {
	var summary Summary

	summary.Add(Result{Host: "db01.example.com", Patched: true, RebootRequired: true})
	summary.Add(Result{Host: "web01.example.com", Patched: true, RebootRequired: true, RebootPerformed: true})
	summary.Add(Result{Host: "app01.example.com", Patched: true, RebootRequired: true, Reason: ReasonRebootTimeout})

	manual := summary.NeedsManualReboot()

	assert.Len(t, manual, 1)
	assert.Equal(t, "db01.example.com", manual[0].Host)
}

func TestSummaryPatchedExcludesFailed(t *testing.T) {
	var summary Summary

	summary.Add(Result{Host: "db01.example.com", Patched: true, UpdatedPackages: 3})
	summary.Add(Result{
		Host: "web01.example.com", Patched: true, RebootRequired: true,
		Reason: ReasonRebootTimeout, Detail: "ssh not available 5m0s after reboot",
	})

	assert.Len(t, summary.Patched(), 1)
	assert.Len(t, summary.Failed(), 1)

	message := summary.Message()

	assert.Contains(t, message, "2 machines attempted, 1 patched, 1 failed")
	assert.NotContains(t, message, "web01.example.com: 0 packages updated")
	assert.Contains(t, message, "Reboots timed out for the following machines:")
}

func TestSummaryMessage(t *testing.T) {
	var summary Summary

	summary.Add(Result{
		Machine: inventory.Machine{Name: "db01", Patch: true},
		Host:    "db01.example.com", Connected: true, Patched: true, UpdatedPackages: 12,
	})
	summary.Add(Result{
		Machine: inventory.Machine{Name: "web01", Patch: true},
		Host:    "web01.example.com", Connected: true, Patched: true, RebootRequired: true,
	})
	summary.Add(Result{
		Machine: inventory.Machine{Name: "old01", Patch: true},
		Host:    "old01.example.com",
		Reason:  ReasonUnreachable, Detail: "ssh not available after 5m0s",
	})

	message := summary.Message()

	assert.Contains(t, message, "Patch run completed with errors")
	assert.Contains(t, message, "3 machines attempted, 2 patched, 1 failed")
	assert.Contains(t, message, "The following machines have been patched:")
	assert.Contains(t, message, "db01.example.com: 12 packages updated")
	assert.Contains(t, message, "Failed to connect to the following machines:")
	assert.Contains(t, message, "old01.example.com: ssh not available after 5m0s")
	assert.Contains(t, message, "The following machines have to be rebooted manually:")
	assert.Contains(t, message, "web01.example.com")
}

func TestSummaryMessageAllOk(t *testing.T) {
	var summary Summary

	summary.Add(Result{Host: "db01.example.com", Connected: true, Patched: true, UpdatedPackages: 2})

	message := summary.Message()

	assert.Contains(t, message, "Patch run completed successfully")
	assert.NotContains(t, message, "Failed")
}

func TestSummaryMessageEmpty(t *testing.T) {
	var summary Summary

	message := summary.Message()

	assert.Contains(t, message, "Patch run completed successfully")
	assert.Contains(t, message, "0 machines attempted, 0 patched, 0 failed")
}
