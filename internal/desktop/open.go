package desktop

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/1broseidon/deskgrid/internal/source"
)

// Opener launches an item in its default application.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// XDGOpener opens targets with xdg-open.
type XDGOpener struct {
	Command string
}

// Open starts the opener command and does not wait for the application.
func (o XDGOpener) Open(_ context.Context, target string) error {
	command := o.Command
	if command == "" {
		command = "xdg-open"
	}
	cmd := exec.Command(command, target)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to run %s: %w", command, err)
	}
	go cmd.Wait()
	return nil
}

// OpenTarget maps an identity key to what the opener should launch.
// Synthetic items map to file manager URIs.
func OpenTarget(key string) string {
	switch key {
	case source.PCID:
		return "computer:///"
	case source.TrashID:
		return "trash:///"
	default:
		return key
	}
}
