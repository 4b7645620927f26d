package redhat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro"
)

const probeTool = "dnf"

var updateCommand = "sudo dnf update -y"
var rebootCheckCommand = "sudo needs-restarting -r"

type Distro struct{}

func (d *Distro) String() string {
	return "RedHat"
}

func (d *Distro) Family() distro.Family {
	return distro.FamilyRedHat
}

func (d *Distro) Probe(ctx context.Context, runner distro.Runner) bool {
	return distro.ProbeTool(ctx, runner, probeTool)
}

func (d *Distro) Update(ctx context.Context, runner distro.Runner) (distro.Status, error) {
	var status distro.Status

	log.Printf("distro/redhat update: %v", updateCommand)

	if result, err := runner.Run(ctx, updateCommand); err != nil {
		return status, err
	} else if status.Output = result.Stdout; result.ExitCode != 0 {
		return status, fmt.Errorf("dnf update failed with exit code %v: %v", result.ExitCode, strings.TrimSpace(result.Stderr))
	} else {
		status.UpdatedPackages = countUpgraded(result.Stdout)

		return status, nil
	}
}

// countUpgraded counts the package lines of the Upgraded: section in dnf
// transaction output.
func countUpgraded(output string) int {
	var count int
	var inUpgradedSection bool

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "Upgraded:"):
			inUpgradedSection = true
		case !inUpgradedSection:

		case strings.TrimSpace(line) == "" || strings.HasPrefix(line, "Installed:"):

		case strings.HasPrefix(line, "Removed:") || strings.HasPrefix(line, "Complete!"):
			return count
		default:
			count++
		}
	}

	return count
}

// RebootRequired probes with needs-restarting: exit 1 means a reboot is
// pending, exit 0 means it is not.
func (d *Distro) RebootRequired(ctx context.Context, runner distro.Runner) (bool, error) {
	if result, err := runner.Run(ctx, rebootCheckCommand); err != nil {
		return false, err
	} else if result.ExitCode == 0 {
		return false, nil
	} else if result.ExitCode == 1 {
		return true, nil
	} else {
		return false, fmt.Errorf("needs-restarting failed with exit code %v", result.ExitCode)
	}
}
