package main

import (
	"context"
	"log"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/notify"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/patch"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/proxmox"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

type NotifyOptions struct {
	notify.Options
	Enable bool
}

func (options NotifyOptions) IsSet() bool {
	return options.Enable && options.BotToken != "" && options.ChatID != ""
}

// hypervisorClient adapts the proxmox client onto the patch collaborator
// interface.
type hypervisorClient struct {
	client *proxmox.Client
}

func makeHypervisor(ctx context.Context, options Options) (patch.Hypervisor, error) {
	var proxmoxOptions = options.Proxmox
	proxmoxOptions.Timeout = options.RequestTimeout

	client, err := proxmox.NewClient(ctx, proxmoxOptions)
	if err != nil {
		return nil, err
	}

	log.Printf("Connected to proxmox node %v at %v", client.Node(), options.Proxmox.Host)

	return hypervisorClient{client: client}, nil
}

func (h hypervisorClient) PowerState(ctx context.Context, name string) (patch.PowerState, error) {
	status, err := h.client.PowerState(ctx, name)
	if err != nil {
		return "", err
	}

	if status == proxmox.StatusRunning {
		return patch.PowerRunning, nil
	}

	return patch.PowerStopped, nil
}

func (h hypervisorClient) Start(ctx context.Context, name string) error {
	return h.client.Start(ctx, name)
}

func (h hypervisorClient) Shutdown(ctx context.Context, name string) error {
	return h.client.Shutdown(ctx, name)
}

func (h hypervisorClient) Reboot(ctx context.Context, name string) error {
	return h.client.Reboot(ctx, name)
}

func (h hypervisorClient) DeleteLatestSnapshot(ctx context.Context, name string) (bool, error) {
	return h.client.DeleteLatestSnapshot(ctx, name)
}

func (h hypervisorClient) CreateSnapshot(ctx context.Context, name string, label string) error {
	return h.client.CreateSnapshot(ctx, name, label)
}

func (h hypervisorClient) HasSnapshot(ctx context.Context, name string, label string) (bool, error) {
	return h.client.HasSnapshot(ctx, name, label)
}

func makeShell(options Options) (patch.Shell, error) {
	var shellOptions = options.SSH
	shellOptions.ConnectTimeout = options.RequestTimeout

	return shell.NewClient(shellOptions)
}

func makeNotifier(options Options) patch.Notifier {
	if !options.Notify.IsSet() {
		log.Printf("No --notify configuration, skipping summary notification")

		return nil
	}

	var notifyOptions = options.Notify.Options
	notifyOptions.Timeout = options.RequestTimeout

	return notify.NewClient(notifyOptions)
}
