package debian

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro"
)

const probeTool = "apt-get"

var refreshCommand = "sudo apt-get update"
var upgradeCommand = "sudo DEBIAN_FRONTEND=noninteractive apt-get upgrade -y"
var rebootCheckCommand = "test -e /var/run/reboot-required"

type Distro struct{}

func (d *Distro) String() string {
	return "Debian"
}

func (d *Distro) Family() distro.Family {
	return distro.FamilyDebian
}

func (d *Distro) Probe(ctx context.Context, runner distro.Runner) bool {
	return distro.ProbeTool(ctx, runner, probeTool)
}

// Update refreshes the package database first; apt upgrades against a stale
// database are useless, so a refresh failure fails the whole update.
func (d *Distro) Update(ctx context.Context, runner distro.Runner) (distro.Status, error) {
	var status distro.Status

	log.Printf("distro/debian refresh: %v", refreshCommand)

	if result, err := runner.Run(ctx, refreshCommand); err != nil {
		return status, err
	} else if result.ExitCode != 0 {
		return status, fmt.Errorf("package database refresh failed with exit code %v: %v", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	log.Printf("distro/debian upgrade: %v", upgradeCommand)

	if result, err := runner.Run(ctx, upgradeCommand); err != nil {
		return status, err
	} else if status.Output = result.Stdout; result.ExitCode != 0 {
		return status, fmt.Errorf("apt-get upgrade failed with exit code %v: %v", result.ExitCode, strings.TrimSpace(result.Stderr))
	} else {
		status.UpdatedPackages = countUpgraded(result.Stdout)

		return status, nil
	}
}

// countUpgraded reads the count from apt's "N upgraded, ..." summary line.
func countUpgraded(output string) int {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, " upgraded,") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}

		if count, err := strconv.Atoi(fields[0]); err == nil {
			return count
		}
	}

	return 0
}

// RebootRequired probes for the marker file apt leaves behind when an
// updated package wants a reboot.
func (d *Distro) RebootRequired(ctx context.Context, runner distro.Runner) (bool, error) {
	if result, err := runner.Run(ctx, rebootCheckCommand); err != nil {
		return false, err
	} else if result.ExitCode == 0 {
		return true, nil
	} else if result.ExitCode == 1 {
		return false, nil
	} else {
		return false, fmt.Errorf("reboot check failed with exit code %v", result.ExitCode)
	}
}
