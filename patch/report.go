package patch

import (
	"fmt"
	"strings"
)

// Summary is the ordered collection of per-machine results for one run.
// Machines with patching disabled never appear in it.
type Summary struct {
	Results []Result
}

func (summary *Summary) Add(result Result) {
	summary.Results = append(summary.Results, result)
}

func (summary Summary) Attempted() int {
	return len(summary.Results)
}

// Patched lists machines that updated and finished cleanly. A machine that
// updated but then failed, e.g. on the reboot wait, counts as failed only,
// so the patched and failed counts partition the attempted machines.
func (summary Summary) Patched() []Result {
	return summary.filter(func(result Result) bool { return result.Patched && !result.Failed() })
}

func (summary Summary) Failed() []Result {
	return summary.filter(Result.Failed)
}

// NeedsManualReboot lists machines with a pending reboot that was not
// performed because reboots are disabled for them.
func (summary Summary) NeedsManualReboot() []Result {
	return summary.filter(func(result Result) bool {
		return result.RebootRequired && !result.RebootPerformed && !result.Failed()
	})
}

func (summary Summary) Ok() bool {
	return len(summary.Failed()) == 0
}

func (summary Summary) withReason(reason Reason) []Result {
	return summary.filter(func(result Result) bool { return result.Reason == reason })
}

func (summary Summary) filter(f func(Result) bool) []Result {
	var results []Result

	for _, result := range summary.Results {
		if f(result) {
			results = append(results, result)
		}
	}

	return results
}

// Message renders the summary notification text.
func (summary Summary) Message() string {
	var lines []string

	if summary.Ok() {
		lines = append(lines, "Patch run completed successfully", "")
	} else {
		lines = append(lines, "Patch run completed with errors", "")
	}

	lines = append(lines, fmt.Sprintf("%v machines attempted, %v patched, %v failed",
		summary.Attempted(), len(summary.Patched()), len(summary.Failed())), "")

	if patched := summary.Patched(); len(patched) > 0 {
		lines = append(lines, "The following machines have been patched:")

		for _, result := range patched {
			lines = append(lines, fmt.Sprintf("%v: %v packages updated", result.Host, result.UpdatedPackages))
		}

		lines = append(lines, "")
	}

	lines = appendSection(lines, "Failed to connect to the following machines:", summary.withReason(ReasonUnreachable))
	lines = appendSection(lines, "Failed to create snapshots for the following machines:", summary.withReason(ReasonSnapshotFailed))
	lines = appendSection(lines, "Failed to patch the following machines:", summary.withReason(ReasonUpdateFailed))
	lines = appendSection(lines, "Hypervisor operations failed for the following machines:", summary.withReason(ReasonHypervisorFailed))
	lines = appendSection(lines, "Reboots timed out for the following machines:", summary.withReason(ReasonRebootTimeout))
	lines = appendSection(lines, "The following machines are unsupported and could not be patched:", summary.withReason(ReasonUnsupportedDistro))
	lines = appendSection(lines, "The following machines have to be rebooted manually:", summary.NeedsManualReboot())

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func appendSection(lines []string, header string, results []Result) []string {
	if len(results) == 0 {
		return lines
	}

	lines = append(lines, header)

	for _, result := range results {
		if result.Detail != "" {
			lines = append(lines, fmt.Sprintf("%v: %v", result.Host, result.Detail))
		} else {
			lines = append(lines, result.Host)
		}
	}

	return append(lines, "")
}
