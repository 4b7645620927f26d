package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/inventory"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/patch"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/proxmox"
	"github.com/Low-Frequency/Proxmox-VM-Patchmanagement/shell"
)

const DefaultSSHTimeout = 5 * time.Minute
const DefaultRetryInterval = 10 * time.Second
const DefaultRebootTimeout = 5 * time.Minute
const DefaultRequestTimeout = 30 * time.Second

type Options struct {
	InventoryPath  string
	Domain         string
	Schedule       string
	Proxmox        proxmox.Options
	SSH            shell.Options
	SSHTimeout     time.Duration
	RetryInterval  time.Duration
	RebootTimeout  time.Duration
	RequestTimeout time.Duration
	Notify         NotifyOptions
	PatchOutput    bool
}

func run(ctx context.Context, options Options) error {
	if err := checkOptions(options); err != nil {
		return err
	}

	inv, err := inventory.Load(options.InventoryPath)
	if err != nil {
		return fmt.Errorf("Failed to load inventory: %v", err)
	}

	log.Printf("Loaded %v machines from %v", len(inv.Machines), options.InventoryPath)

	hypervisor, err := makeHypervisor(ctx, options)
	if err != nil {
		return fmt.Errorf("Failed to connect to proxmox: %v", err)
	}

	sh, err := makeShell(options)
	if err != nil {
		return fmt.Errorf("Failed to configure ssh: %v", err)
	}

	notifier := makeNotifier(options)

	scheduler, err := makeScheduler(options)
	if err != nil {
		return err
	}

	coordinator := patch.NewCoordinator(inv.Machines, hypervisor, sh, notifier, patch.Options{
		Domain:          options.Domain,
		ConnectTimeout:  options.SSHTimeout,
		RetryInterval:   options.RetryInterval,
		RebootTimeout:   options.RebootTimeout,
		ShowPatchOutput: options.PatchOutput,
	})

	return scheduler.Run(ctx, func() error {
		summary, err := coordinator.Run(ctx)
		if err != nil {
			return err
		}

		if summary.Ok() {
			log.Printf("Patch run completed successfully: %v machines attempted, %v patched",
				summary.Attempted(), len(summary.Patched()))
		} else {
			log.Printf("Patch run completed with errors: %v machines attempted, %v patched, %v failed",
				summary.Attempted(), len(summary.Patched()), len(summary.Failed()))
		}

		return nil
	})
}

func main() {
	var options Options

	flag.StringVar(&options.InventoryPath, "inventory", getenv("INVENTORY_FILE", "inventory.yml"), "Path to inventory file (INVENTORY_FILE)")
	flag.StringVar(&options.Domain, "domain", os.Getenv("DOMAIN"), "Domain suffix used to resolve machine names (DOMAIN)")
	flag.StringVar(&options.Schedule, "schedule", "", "Scheduled patch runs (cron syntax)")
	flag.StringVar(&options.Proxmox.Host, "proxmox-host", os.Getenv("PROXMOX_HOST"), "FQDN of the Proxmox host (PROXMOX_HOST)")
	flag.StringVar(&options.Proxmox.User, "proxmox-user", os.Getenv("PROXMOX_USER"), "User for the Proxmox API (PROXMOX_USER)")
	flag.StringVar(&options.Proxmox.Password, "proxmox-password", os.Getenv("PROXMOX_PASSWORD"), "Password for the Proxmox API user (PROXMOX_PASSWORD)")
	flag.BoolVar(&options.Proxmox.VerifySSL, "proxmox-verify-ssl", getenvBool("PROXMOX_VERIFY_SSL", false), "Verify the Proxmox TLS certificate (PROXMOX_VERIFY_SSL)")
	flag.StringVar(&options.SSH.User, "ssh-user", os.Getenv("SSH_USER"), "User used to connect to the machines (SSH_USER)")
	flag.StringVar(&options.SSH.KeyFile, "ssh-key-file", os.Getenv("SSH_KEY_FILE"), "Path to the SSH key file (SSH_KEY_FILE)")
	flag.DurationVar(&options.SSHTimeout, "ssh-timeout", getenvDuration("SSH_TIMEOUT", DefaultSSHTimeout), "Total SSH availability timeout (SSH_TIMEOUT)")
	flag.DurationVar(&options.RetryInterval, "ssh-retry-interval", getenvDuration("SSH_RETRY_INTERVAL", DefaultRetryInterval), "Retry interval for the SSH availability check (SSH_RETRY_INTERVAL)")
	flag.DurationVar(&options.RebootTimeout, "reboot-timeout", DefaultRebootTimeout, "Wait for a machine to come back after rebooting")
	flag.DurationVar(&options.RequestTimeout, "request-timeout", getenvDuration("POST_REQ_TIMEOUT", DefaultRequestTimeout), "Per-request network timeout (POST_REQ_TIMEOUT)")
	flag.BoolVar(&options.Notify.Enable, "notify", getenvBool("ENABLE_NOTIFICATION", true), "Send a summary notification via Telegram (ENABLE_NOTIFICATION)")
	flag.StringVar(&options.Notify.BotToken, "telegram-bot-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Authentication token of the Telegram bot (TELEGRAM_BOT_TOKEN)")
	flag.StringVar(&options.Notify.ChatID, "telegram-chat-id", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram channel to send the summary to (TELEGRAM_CHAT_ID)")
	flag.BoolVar(&options.PatchOutput, "patch-output", getenvBool("ENABLE_PATCH_OUTPUT", false), "Log stdout of the update command (ENABLE_PATCH_OUTPUT)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, options); err != nil {
		log.Fatalf("%v", err)
	}
}
