package distro

import (
	"context"
	"strings"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

// Runner executes commands on one machine over the shell transport.
type Runner interface {
	Run(ctx context.Context, command string) (shell.Result, error)
}

type Family string

const (
	FamilyRedHat Family = "redhat"
	FamilyDebian Family = "debian"
)

// Status is the outcome of one package update run.
type Status struct {
	UpdatedPackages int
	Output          string
}

type Distro interface {
	Family() Family
	Probe(ctx context.Context, runner Runner) bool
	Update(ctx context.Context, runner Runner) (Status, error)
	RebootRequired(ctx context.Context, runner Runner) (bool, error)
}

// ProbeTool checks for a family-identifying package manager binary. A single
// deterministic probe per family: `which` must print an absolute path to the
// tool on its first output line.
func ProbeTool(ctx context.Context, runner Runner, tool string) bool {
	result, err := runner.Run(ctx, "which "+tool)

	if err != nil || result.ExitCode != 0 {
		return false
	}

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	if len(lines) < 1 {
		return false
	}

	return strings.HasPrefix(lines[0], "/") && strings.HasSuffix(lines[0], "/"+tool)
}
