package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validOptions() Options {
	var options Options

	options.Domain = "example.com"
	options.Proxmox.Host = "pve.example.com"
	options.Proxmox.User = "root@pam"
	options.Proxmox.Password = "hunter2"
	options.SSH.User = "patch"
	options.SSH.KeyFile = "/etc/patch/id_ed25519"

	return options
}

func TestCheckOptions(t *testing.T) {
	assert.NoErrorf(t, checkOptions(validOptions()), "checkOptions")
}

func TestCheckOptionsMissing(t *testing.T) {
	var cases = map[string]func(*Options){
		"--proxmox-host":     func(options *Options) { options.Proxmox.Host = "" },
		"--proxmox-user":     func(options *Options) { options.Proxmox.User = "" },
		"--proxmox-password": func(options *Options) { options.Proxmox.Password = "" },
		"--ssh-user":         func(options *Options) { options.SSH.User = "" },
		"--ssh-key-file":     func(options *Options) { options.SSH.KeyFile = "" },
		"--domain":           func(options *Options) { options.Domain = "" },
	}

	for flagName, clear := range cases {
		options := validOptions()
		clear(&options)

		err := checkOptions(options)

		if assert.Errorf(t, err, "checkOptions without %v", flagName) {
			assert.Contains(t, err.Error(), flagName)
		}
	}
}

func TestCheckOptionsNotifyEnabled(t *testing.T) {
	options := validOptions()
	options.Notify.Enable = true

	err := checkOptions(options)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "--telegram-bot-token")
	}

	options.Notify.BotToken = "123:secret"
	options.Notify.ChatID = "-1001"

	assert.NoErrorf(t, checkOptions(options), "checkOptions")
}

func TestParseBool(t *testing.T) {
	for _, value := range []string{"y", "Yes", "t", "TRUE", "on", "1"} {
		parsed, ok := parseBool(value)

		assert.True(t, ok, value)
		assert.True(t, parsed, value)
	}

	for _, value := range []string{"n", "No", "f", "FALSE", "off", "0"} {
		parsed, ok := parseBool(value)

		assert.True(t, ok, value)
		assert.False(t, parsed, value)
	}

	_, ok := parseBool("maybe")

	assert.False(t, ok)
}

func TestGetenvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "300")
	assert.Equal(t, 300*time.Second, getenvDuration("TEST_TIMEOUT", time.Minute))

	t.Setenv("TEST_TIMEOUT", "2m")
	assert.Equal(t, 2*time.Minute, getenvDuration("TEST_TIMEOUT", time.Minute))

	t.Setenv("TEST_TIMEOUT", "soon")
	assert.Equal(t, time.Minute, getenvDuration("TEST_TIMEOUT", time.Minute))

	t.Setenv("TEST_TIMEOUT", "")
	assert.Equal(t, time.Minute, getenvDuration("TEST_TIMEOUT", time.Minute))
}

func TestNotifyOptionsIsSet(t *testing.T) {
	var options NotifyOptions

	assert.False(t, options.IsSet())

	options.Enable = true
	assert.False(t, options.IsSet())

	options.BotToken = "123:secret"
	options.ChatID = "-1001"
	assert.True(t, options.IsSet())
}
