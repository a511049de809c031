package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListIcons   CommandType = "LIST_ICONS"
	CommandSort        CommandType = "SORT"
	CommandDrop        CommandType = "DROP"
	CommandSetSnap     CommandType = "SET_SNAP"
	CommandActivate    CommandType = "ACTIVATE"
	CommandSave        CommandType = "SAVE"
	CommandRescan      CommandType = "RESCAN"
	CommandSetIconSize CommandType = "SET_ICON_SIZE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Mode          string `json:"mode"`
	SortKey       string `json:"sort_key"`
	SortOrder     string `json:"sort_order"`
	Sorted        bool   `json:"sorted"`
	IconCount     int    `json:"icon_count"`
	IconSize      int    `json:"icon_size"`
	CellWidth     int    `json:"cell_width"`
	CellHeight    int    `json:"cell_height"`
	AreaWidth     int    `json:"area_width"`
	AreaHeight    int    `json:"area_height"`
	Conflicts     int    `json:"conflicts"`
	Rebuilds      int    `json:"rebuilds"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// SortPayload represents the payload for SORT
type SortPayload struct {
	Key string `json:"key"`
}

// DropPayload represents the payload for DROP. The first key lands at X,Y;
// the rest keep their offsets from it.
type DropPayload struct {
	Keys []string `json:"keys"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
}

// SetSnapPayload represents the payload for SET_SNAP
type SetSnapPayload struct {
	Enabled bool `json:"enabled"`
}

// ActivatePayload represents the payload for ACTIVATE
type ActivatePayload struct {
	Key string `json:"key"`
}

// IconSizePayload represents the payload for SET_ICON_SIZE
type IconSizePayload struct {
	Size int `json:"size"`
}

// SaveData represents the data returned by SAVE
type SaveData struct {
	Saved bool `json:"saved"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
