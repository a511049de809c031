package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskgrid/internal/sortview"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Mode:       st.Mode,
		SortKey:    st.SortKey,
		Sorted:     st.Sorted,
		IconCount:  st.IconCount,
		IconSize:   st.IconSize,
		CellWidth:  st.CellWidth,
		CellHeight: st.CellHeight,
		AreaWidth:  st.AreaWidth,
		AreaHeight: st.AreaHeight,
		Conflicts:  st.Conflicts,
	}, nil
}

func (s *Server) handleListIcons(_ context.Context, _ *mcpsdk.CallToolRequest, args ListIconsInput) (*mcpsdk.CallToolResult, ListIconsOutput, error) {
	st, err := s.daemon.ListIcons()
	if err != nil {
		return nil, ListIconsOutput{}, err
	}

	filter := strings.ToLower(strings.TrimSpace(args.Filter))
	out := ListIconsOutput{Mode: st.Mode, Icons: make([]IconInfo, 0, len(st.Icons))}
	for _, v := range st.Icons {
		if filter != "" && !strings.Contains(strings.ToLower(v.Name), filter) {
			continue
		}
		out.Icons = append(out.Icons, iconInfo(v))
	}
	return nil, out, nil
}

func (s *Server) handleSortIcons(_ context.Context, _ *mcpsdk.CallToolRequest, args SortIconsInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	key, err := sortview.ParseKey(args.Key)
	if err != nil {
		return nil, ResultOutput{}, err
	}
	if err := s.daemon.Sort(key.String()); err != nil {
		return nil, ResultOutput{}, err
	}
	s.logger.Info("icons sorted via mcp", "key", key)
	return nil, ResultOutput{OK: true, Message: fmt.Sprintf("icons arranged by %s", key)}, nil
}

func (s *Server) handleMoveIcons(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveIconsInput) (*mcpsdk.CallToolResult, MoveIconsOutput, error) {
	if len(args.Keys) == 0 {
		return nil, MoveIconsOutput{}, fmt.Errorf("keys must not be empty")
	}
	if err := s.daemon.Drop(args.Keys, args.X, args.Y); err != nil {
		return nil, MoveIconsOutput{}, err
	}

	// Report where the icons ended up; snap mode may have rounded them.
	st, err := s.daemon.ListIcons()
	if err != nil {
		return nil, MoveIconsOutput{}, err
	}
	moved := make(map[string]bool, len(args.Keys))
	for _, k := range args.Keys {
		moved[k] = true
	}
	out := MoveIconsOutput{}
	for _, v := range st.Icons {
		if moved[v.Key] {
			out.Icons = append(out.Icons, iconInfo(v))
		}
	}
	return nil, out, nil
}

func (s *Server) handleSetSnap(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSnapInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	if err := s.daemon.SetSnap(args.Enabled); err != nil {
		return nil, ResultOutput{}, err
	}
	mode := "free"
	if args.Enabled {
		mode = "snap"
	}
	return nil, ResultOutput{OK: true, Message: "placement mode is now " + mode}, nil
}

func (s *Server) handleOpenIcon(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenIconInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	if strings.TrimSpace(args.Key) == "" {
		return nil, ResultOutput{}, fmt.Errorf("key is required")
	}
	if err := s.daemon.Activate(args.Key); err != nil {
		return nil, ResultOutput{}, err
	}
	return nil, ResultOutput{OK: true}, nil
}

func (s *Server) handleSavePositions(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	saved, err := s.daemon.Save()
	if err != nil {
		return nil, ResultOutput{}, err
	}
	if !saved {
		return nil, ResultOutput{OK: false, Message: "the daemon could not write the position file; see its log"}, nil
	}
	return nil, ResultOutput{OK: true}, nil
}

func (s *Server) handleRescan(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	if err := s.daemon.Rescan(); err != nil {
		return nil, ResultOutput{}, err
	}
	return nil, ResultOutput{OK: true}, nil
}
