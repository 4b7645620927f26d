package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

func getenv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

// parseBool accepts the same spellings the original env surface did.
func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "y", "yes", "t", "true", "on", "1":
		return true, true
	case "n", "no", "f", "false", "off", "0":
		return false, true
	default:
		return false, false
	}
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	if parsed, ok := parseBool(value); ok {
		return parsed
	}

	log.Printf("Ignoring invalid %v=%v", key, value)

	return fallback
}

// getenvDuration accepts Go durations, or bare seconds for compatibility
// with the original SSH_TIMEOUT=300 style settings.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if sec, err := strconv.Atoi(value); err == nil {
		return time.Duration(sec) * time.Second
	}

	log.Printf("Ignoring invalid %v=%v", key, value)

	return fallback
}

func checkOptions(options Options) error {
	if options.Proxmox.Host == "" {
		return fmt.Errorf("Missing --proxmox-host")
	}

	if options.Proxmox.User == "" {
		return fmt.Errorf("Missing --proxmox-user")
	}

	if options.Proxmox.Password == "" {
		return fmt.Errorf("Missing --proxmox-password")
	}

	if options.SSH.User == "" {
		return fmt.Errorf("Missing --ssh-user")
	}

	if options.SSH.KeyFile == "" {
		return fmt.Errorf("Missing --ssh-key-file")
	}

	if options.Domain == "" {
		return fmt.Errorf("Missing --domain")
	}

	if options.Notify.Enable {
		if options.Notify.BotToken == "" {
			return fmt.Errorf("Missing --telegram-bot-token")
		}

		if options.Notify.ChatID == "" {
			return fmt.Errorf("Missing --telegram-chat-id")
		}
	}

	return nil
}
