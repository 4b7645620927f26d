package debian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

const aptOutput = `Reading package lists...
Building dependency tree...
Reading state information...
Calculating upgrade...
The following packages will be upgraded:
  bash curl libssl3
12 upgraded, 0 newly installed, 0 to remove and 5 not upgraded.
Need to get 8,042 kB of archives.
`

type fakeRunner struct {
	results map[string]shell.Result
}

func (r fakeRunner) Run(ctx context.Context, command string) (shell.Result, error) {
	if result, ok := r.results[command]; ok {
		return result, nil
	}

	return shell.Result{ExitCode: 127}, nil
}

func TestProbe(t *testing.T) {
	var d Distro
	var runner = fakeRunner{results: map[string]shell.Result{
		"which apt-get": {Stdout: "/usr/bin/apt-get\n"},
	}}

	assert.True(t, d.Probe(context.Background(), runner))
}

func TestProbeMissing(t *testing.T) {
	var d Distro
	var runner = fakeRunner{results: map[string]shell.Result{
		"which apt-get": {ExitCode: 1},
	}}

	assert.False(t, d.Probe(context.Background(), runner))
}

func TestUpdate(t *testing.T) {
	var d Distro
	var runner = fakeRunner{results: map[string]shell.Result{
		"sudo apt-get update": {},
		"sudo DEBIAN_FRONTEND=noninteractive apt-get upgrade -y": {Stdout: aptOutput},
	}}

	status, err := d.Update(context.Background(), runner)

	assert.NoErrorf(t, err, "Update")
	assert.Equal(t, 12, status.UpdatedPackages)
}

func TestUpdateRefreshFailed(t *testing.T) {
	var d Distro
	var runner = fakeRunner{results: map[string]shell.Result{
		"sudo apt-get update": {ExitCode: 100, Stderr: "E: Could not get lock /var/lib/apt/lists/lock\n"},
	}}

	_, err := d.Update(context.Background(), runner)

	assert.Error(t, err)
}

func TestUpdateUpgradeFailed(t *testing.T) {
	var d Distro
	var runner = fakeRunner{results: map[string]shell.Result{
		"sudo apt-get update": {},
		"sudo DEBIAN_FRONTEND=noninteractive apt-get upgrade -y": {ExitCode: 100, Stderr: "E: Sub-process /usr/bin/dpkg returned an error code\n"},
	}}

	_, err := d.Update(context.Background(), runner)

	assert.Error(t, err)
}

func TestCountUpgradedNoSummary(t *testing.T) {
	assert.Equal(t, 0, countUpgraded("Reading package lists...\n"))
}

func TestRebootRequired(t *testing.T) {
	var d Distro

	for exitCode, expected := range map[int]bool{0: true, 1: false} {
		var runner = fakeRunner{results: map[string]shell.Result{
			"test -e /var/run/reboot-required": {ExitCode: exitCode},
		}}

		required, err := d.RebootRequired(context.Background(), runner)

		assert.NoErrorf(t, err, "RebootRequired exit %v", exitCode)
		assert.Equal(t, expected, required)
	}
}
