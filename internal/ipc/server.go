package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/deskgrid/internal/desktop"
	"github.com/1broseidon/deskgrid/internal/layout"
	"github.com/1broseidon/deskgrid/internal/runtimepath"
	"github.com/1broseidon/deskgrid/internal/sortview"
)

// Desktop is the part of the desktop controller the server drives.
type Desktop interface {
	Snapshot() desktop.State
	SortBy(key sortview.Key)
	Drop(keys []string, p layout.Point) error
	SetSnap(on bool)
	SetIconSize(size int) error
	Activate(ctx context.Context, key string) error
	Save() bool
	Rescan()
}

var _ Desktop = (*desktop.Controller)(nil)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	desk         Desktop
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default socket path.
func NewServer(desk Desktop, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, desk, reloadChan), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, desk Desktop, reloadChan chan struct{}) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		desk:       desk,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListIcons:
		return s.handleListIcons()
	case CommandSort:
		return s.handleSort(req.Payload)
	case CommandDrop:
		return s.handleDrop(req.Payload)
	case CommandSetSnap:
		return s.handleSetSnap(req.Payload)
	case CommandActivate:
		return s.handleActivate(req.Payload)
	case CommandSave:
		return s.handleSave()
	case CommandRescan:
		return s.handleRescan()
	case CommandSetIconSize:
		return s.handleSetIconSize(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload asks the daemon to re-read its configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	st := s.desk.Snapshot()

	status := StatusData{
		Mode:          st.Mode,
		SortKey:       st.SortKey,
		SortOrder:     st.SortOrder,
		Sorted:        st.Sorted,
		IconCount:     len(st.Icons),
		IconSize:      st.IconSize,
		CellWidth:     st.Cell.W,
		CellHeight:    st.Cell.H,
		AreaWidth:     st.Area.W,
		AreaHeight:    st.Area.H,
		Conflicts:     len(st.Conflicts),
		Rebuilds:      st.Rebuilds,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListIcons() *Response {
	resp, err := NewOKResponse(s.desk.Snapshot())
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleSort(payload json.RawMessage) *Response {
	var req SortPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid sort payload: %v", err))
	}
	key, err := sortview.ParseKey(req.Key)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	log.Printf("IPC: Sort icons by %s", key)
	s.desk.SortBy(key)

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleDrop(payload json.RawMessage) *Response {
	var req DropPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drop payload: %v", err))
	}
	if len(req.Keys) == 0 {
		return NewErrorResponse("keys is required")
	}

	if err := s.desk.Drop(req.Keys, layout.Point{X: req.X, Y: req.Y}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to move icons: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetSnap(payload json.RawMessage) *Response {
	var req SetSnapPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snap payload: %v", err))
	}

	log.Printf("IPC: Set snap to grid: %v", req.Enabled)
	s.desk.SetSnap(req.Enabled)

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleActivate(payload json.RawMessage) *Response {
	var req ActivatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if req.Key == "" {
		return NewErrorResponse("key is required")
	}

	if err := s.desk.Activate(context.Background(), req.Key); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to open %s: %v", req.Key, err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSave() *Response {
	resp, _ := NewOKResponse(SaveData{Saved: s.desk.Save()})
	return resp
}

func (s *Server) handleRescan() *Response {
	s.desk.Rescan()

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetIconSize(payload json.RawMessage) *Response {
	var req IconSizePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid icon size payload: %v", err))
	}

	if err := s.desk.SetIconSize(req.Size); err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
