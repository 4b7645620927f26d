package shell

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

const DefaultPort = 22

type Options struct {
	User           string
	KeyFile        string
	Port           int
	ConnectTimeout time.Duration
}

// Result captures one remote command execution. A nonzero ExitCode is not an
// error at this level; callers decide what exit statuses mean.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

type Client struct {
	config *ssh.ClientConfig
	port   int
}

func NewClient(options Options) (*Client, error) {
	key, err := os.ReadFile(options.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("Read ssh key file %v: %v", options.KeyFile, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("Parse ssh key file %v: %v", options.KeyFile, err)
	}

	var port = options.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Client{
		config: &ssh.ClientConfig{
			User:            options.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         options.ConnectTimeout,
		},
		port: port,
	}, nil
}

func (client *Client) dial(ctx context.Context, host string) (*ssh.Client, error) {
	var addr = net.JoinHostPort(host, fmt.Sprintf("%d", client.port))
	var dialer = net.Dialer{Timeout: client.config.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, client.config)
	if err != nil {
		conn.Close()

		return nil, err
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// Reachable makes a single connection attempt, bounded by the configured
// connect timeout. Retrying is the caller's bounded poll, not ours.
func (client *Client) Reachable(ctx context.Context, host string) bool {
	if conn, err := client.dial(ctx, host); err != nil {
		log.Printf("shell: connection attempt to %v failed: %v", host, err)

		return false
	} else {
		conn.Close()

		return true
	}
}

func (client *Client) Run(ctx context.Context, host string, command string) (Result, error) {
	var result Result

	conn, err := client.dial(ctx, host)
	if err != nil {
		return result, fmt.Errorf("shell: connect to %v: %v", host, err)
	}
	defer conn.Close()

	session, err := conn.NewSession()
	if err != nil {
		return result, fmt.Errorf("shell: session on %v: %v", host, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(command); err == nil {

	} else if exitErr, ok := err.(*ssh.ExitError); ok {
		result.ExitCode = exitErr.ExitStatus()
	} else {
		return result, fmt.Errorf("shell: run %q on %v: %v", command, host, err)
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	return result, nil
}
