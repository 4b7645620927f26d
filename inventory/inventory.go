package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Machine is one managed machine and its per-machine flags. Machines with
// Patch disabled are never touched.
type Machine struct {
	Name   string `yaml:"name"`
	Patch  bool   `yaml:"patch"`
	Reboot bool   `yaml:"reboot"`
}

// FQDN resolves the machine name to the address used for ssh connections.
func (machine Machine) FQDN(domain string) string {
	if domain == "" {
		return machine.Name
	}

	return machine.Name + "." + domain
}

type Inventory struct {
	Machines []Machine `yaml:"virtual_machines"`
}

func Load(path string) (Inventory, error) {
	var inventory Inventory

	if data, err := os.ReadFile(path); err != nil {
		return inventory, fmt.Errorf("Read inventory file %v: %v", path, err)
	} else if err := yaml.Unmarshal(data, &inventory); err != nil {
		return inventory, fmt.Errorf("Parse inventory file %v: %v", path, err)
	}

	for i, machine := range inventory.Machines {
		if machine.Name == "" {
			return inventory, fmt.Errorf("Invalid inventory file %v: machine %v is missing a name", path, i)
		}
	}

	return inventory, nil
}
