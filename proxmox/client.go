package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	Host      string
	User      string
	Password  string
	VerifySSL bool
	Timeout   time.Duration
}

// VM power states as reported by the qemu status API.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Client is a thin Proxmox VE API client covering the power and snapshot
// operations the patch run needs. VMs are addressed by name; the vmid
// mapping is resolved against the node's qemu listing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	node       string
	ticket     string
	csrfToken  string
	vmids      map[string]int
}

func NewClient(ctx context.Context, options Options) (*Client, error) {
	return NewClientURL(ctx, fmt.Sprintf("https://%v:8006/api2/json", options.Host), options)
}

// NewClientURL is NewClient against an explicit API URL. Used by tests.
func NewClientURL(ctx context.Context, baseURL string, options Options) (*Client, error) {
	var transport = http.DefaultTransport

	if !options.VerifySSL {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}

	var client = &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   options.Timeout,
			Transport: transport,
		},
		vmids: make(map[string]int),
	}

	if err := client.login(ctx, options.User, options.Password); err != nil {
		return nil, fmt.Errorf("proxmox login: %v", err)
	}

	if err := client.discoverNode(ctx); err != nil {
		return nil, fmt.Errorf("proxmox node discovery: %v", err)
	}

	return client, nil
}

func (client *Client) Node() string {
	return client.node
}

func (client *Client) request(ctx context.Context, method string, path string, form url.Values, out interface{}) error {
	var body io.Reader

	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return err
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if client.ticket != "" {
		req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: client.ticket})
	}

	if method != http.MethodGet && client.csrfToken != "" {
		req.Header.Set("CSRFPreventionToken", client.csrfToken)
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%v %v failed with status %v", method, path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return nil
}

func (client *Client) login(ctx context.Context, user string, password string) error {
	var out struct {
		Data struct {
			Ticket    string `json:"ticket"`
			CSRFToken string `json:"CSRFPreventionToken"`
		} `json:"data"`
	}

	var form = url.Values{
		"username": {user},
		"password": {password},
	}

	if err := client.request(ctx, http.MethodPost, "/access/ticket", form, &out); err != nil {
		return err
	}

	client.ticket = out.Data.Ticket
	client.csrfToken = out.Data.CSRFToken

	return nil
}

func (client *Client) discoverNode(ctx context.Context) error {
	var out struct {
		Data []struct {
			Node string `json:"node"`
		} `json:"data"`
	}

	if err := client.request(ctx, http.MethodGet, "/nodes", nil, &out); err != nil {
		return err
	} else if len(out.Data) < 1 {
		return fmt.Errorf("no nodes found")
	}

	client.node = out.Data[0].Node

	return nil
}

func (client *Client) refreshVMs(ctx context.Context) error {
	var out struct {
		Data []struct {
			VMID   int    `json:"vmid"`
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"data"`
	}

	if err := client.request(ctx, http.MethodGet, fmt.Sprintf("/nodes/%v/qemu", client.node), nil, &out); err != nil {
		return err
	}

	for _, vm := range out.Data {
		client.vmids[vm.Name] = vm.VMID
	}

	return nil
}

func (client *Client) vmid(ctx context.Context, name string) (int, error) {
	if vmid, ok := client.vmids[name]; ok {
		return vmid, nil
	}

	if err := client.refreshVMs(ctx); err != nil {
		return 0, err
	}

	if vmid, ok := client.vmids[name]; ok {
		return vmid, nil
	}

	return 0, fmt.Errorf("VM %v not found on node %v", name, client.node)
}

func (client *Client) vmPath(vmid int, suffix string) string {
	return fmt.Sprintf("/nodes/%v/qemu/%d%v", client.node, vmid, suffix)
}

// vmRequest issues a request against a VM path. A cached vmid goes stale
// when the VM is recreated between scheduled runs, so on failure the mapping
// is re-resolved and the request retried once if the id changed.
func (client *Client) vmRequest(ctx context.Context, method string, name string, suffix string, form url.Values, out interface{}) error {
	vmid, err := client.vmid(ctx, name)
	if err != nil {
		return err
	}

	err = client.request(ctx, method, client.vmPath(vmid, suffix), form, out)
	if err == nil {
		return nil
	}

	delete(client.vmids, name)

	refreshed, refreshErr := client.vmid(ctx, name)
	if refreshErr != nil || refreshed == vmid {
		return err
	}

	log.Printf("proxmox: VM %v changed vmid %v -> %v, retrying", name, vmid, refreshed)

	return client.request(ctx, method, client.vmPath(refreshed, suffix), form, out)
}

func (client *Client) PowerState(ctx context.Context, name string) (string, error) {
	var out struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}

	if err := client.vmRequest(ctx, http.MethodGet, name, "/status/current", nil, &out); err != nil {
		return "", err
	}

	return out.Data.Status, nil
}

func (client *Client) Start(ctx context.Context, name string) error {
	return client.statusCommand(ctx, name, "start")
}

// Shutdown asks the guest to shut down cleanly. The API call returns as soon
// as the shutdown is initiated.
func (client *Client) Shutdown(ctx context.Context, name string) error {
	return client.statusCommand(ctx, name, "shutdown")
}

func (client *Client) Reboot(ctx context.Context, name string) error {
	return client.statusCommand(ctx, name, "reboot")
}

func (client *Client) statusCommand(ctx context.Context, name string, command string) error {
	return client.vmRequest(ctx, http.MethodPost, name, "/status/"+command, url.Values{}, nil)
}

// ListSnapshots returns the VM's snapshot names in list order, without the
// "current" placeholder the API appends.
func (client *Client) ListSnapshots(ctx context.Context, name string) ([]string, error) {
	var out struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}

	if err := client.vmRequest(ctx, http.MethodGet, name, "/snapshot", nil, &out); err != nil {
		return nil, err
	}

	var snapshots []string

	for _, snapshot := range out.Data {
		if snapshot.Name == "current" {
			continue
		}

		snapshots = append(snapshots, snapshot.Name)
	}

	return snapshots, nil
}

// DeleteLatestSnapshot deletes the most recent snapshot if one exists, and
// reports whether a snapshot was deleted.
func (client *Client) DeleteLatestSnapshot(ctx context.Context, name string) (bool, error) {
	snapshots, err := client.ListSnapshots(ctx, name)
	if err != nil {
		return false, err
	}

	if len(snapshots) < 1 {
		return false, nil
	}

	var latest = snapshots[len(snapshots)-1]

	if err := client.vmRequest(ctx, http.MethodDelete, name, "/snapshot/"+latest, nil, nil); err != nil {
		return false, err
	}

	return true, nil
}

func (client *Client) CreateSnapshot(ctx context.Context, name string, label string) error {
	return client.vmRequest(ctx, http.MethodPost, name, "/snapshot", url.Values{"snapname": {label}}, nil)
}

func (client *Client) HasSnapshot(ctx context.Context, name string, label string) (bool, error) {
	snapshots, err := client.ListSnapshots(ctx, name)
	if err != nil {
		return false, err
	}

	for _, snapshot := range snapshots {
		if snapshot == label {
			return true, nil
		}
	}

	return false, nil
}
