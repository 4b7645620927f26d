package patch

import (
	"context"
	"log"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro/debian"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/distro/redhat"
)

func probeDistro(ctx context.Context, runner distro.Runner) (distro.Distro, bool) {
	var probeDistros = []distro.Distro{
		&redhat.Distro{},
		&debian.Distro{},
	}

	for _, d := range probeDistros {
		if !d.Probe(ctx, runner) {
			continue
		}

		log.Printf("Probed distro: %v", d)

		return d, true
	}

	return nil, false
}
