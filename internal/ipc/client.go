package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/deskgrid/internal/desktop"
	"github.com/1broseidon/deskgrid/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// send marshals payload into a request for command.
func (c *Client) send(command CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.send(CommandReload, nil)
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListIcons retrieves every icon with its position, in presentation order.
func (c *Client) ListIcons() (*desktop.State, error) {
	resp, err := c.send(CommandListIcons, nil)
	if err != nil {
		return nil, err
	}

	var st desktop.State
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse icon list: %w", err)
	}

	return &st, nil
}

// Sort arranges the icons by key ("name", "type", "size" or "date").
func (c *Client) Sort(key string) error {
	_, err := c.send(CommandSort, SortPayload{Key: key})
	return err
}

// Drop moves keys so the first lands at x,y.
func (c *Client) Drop(keys []string, x, y int) error {
	_, err := c.send(CommandDrop, DropPayload{Keys: keys, X: x, Y: y})
	return err
}

// SetSnap turns snap-to-grid on or off.
func (c *Client) SetSnap(enabled bool) error {
	_, err := c.send(CommandSetSnap, SetSnapPayload{Enabled: enabled})
	return err
}

// Activate opens an item in its default application.
func (c *Client) Activate(key string) error {
	_, err := c.send(CommandActivate, ActivatePayload{Key: key})
	return err
}

// Save writes the current positions. The bool reports whether the daemon's
// write succeeded.
func (c *Client) Save() (bool, error) {
	resp, err := c.send(CommandSave, nil)
	if err != nil {
		return false, err
	}

	var data SaveData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return false, fmt.Errorf("failed to parse save data: %w", err)
	}
	return data.Saved, nil
}

// Rescan makes the daemon re-read its desktop directories.
func (c *Client) Rescan() error {
	_, err := c.send(CommandRescan, nil)
	return err
}

// SetIconSize changes the icon size in pixels.
func (c *Client) SetIconSize(size int) error {
	_, err := c.send(CommandSetIconSize, IconSizePayload{Size: size})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
