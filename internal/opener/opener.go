// Package opener hands a file to the desktop's default application.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

var commandContext = exec.CommandContext

// Opener opens files with the platform default program.
type Opener interface {
	Open(ctx context.Context, path string) error
}

type commandOpener struct {
	goos string
}

// New creates an opener for the running platform.
func New() Opener {
	return commandOpener{goos: runtime.GOOS}
}

// Command returns the program and arguments that open path on goos.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

func (o commandOpener) Open(ctx context.Context, path string) error {
	name, args := Command(o.goos, path)
	if err := commandContext(ctx, name, args...).Start(); err != nil { //nolint:gosec
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
