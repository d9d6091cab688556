// Package license implements the activation gate checked before the
// catalog is opened. It is a convenience gate, not a security boundary.
package license

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/checksum"
)

// Prompter asks the user for the activation password. Returning io.EOF
// means the user cancelled.
type Prompter interface {
	Password(prompt string) (string, error)
}

// Gate checks and writes the activation marker.
type Gate struct {
	markerPath  string
	secret      string
	maxAttempts int
	prompter    Prompter
	logger      *slog.Logger
}

// New creates a gate. secretSHA256 is the hex digest a password must hash to.
func New(markerPath, secretSHA256 string, maxAttempts int, p Prompter, logger *slog.Logger) *Gate {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		markerPath:  markerPath,
		secret:      secretSHA256,
		maxAttempts: maxAttempts,
		prompter:    p,
		logger:      logger,
	}
}

// MarkerPath returns where the activation marker lives.
func (g *Gate) MarkerPath() string { return g.markerPath }

// Activated reports whether the marker exists and holds the secret digest.
func (g *Gate) Activated() bool {
	data, err := os.ReadFile(g.markerPath)
	if err != nil {
		return false
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return checksum.Equal(line, g.secret)
}

// Ensure returns nil when the gate is already open. Otherwise it prompts up
// to maxAttempts times and writes the marker on the first correct password.
// Exhausted attempts or a cancelled prompt yield apperr.ErrLicenseDenied.
func (g *Gate) Ensure() error {
	if g.Activated() {
		return nil
	}
	if g.prompter == nil {
		return fmt.Errorf("%w: no prompt available", apperr.ErrLicenseDenied)
	}
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		pw, err := g.prompter.Password(fmt.Sprintf("Activation password (%d/%d): ", attempt, g.maxAttempts))
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: cancelled", apperr.ErrLicenseDenied)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrLicenseDenied, err)
		}
		if err := g.Activate(pw); err == nil {
			return nil
		} else if !errors.Is(err, apperr.ErrLicenseDenied) {
			return err
		}
		g.logger.Warn("license: wrong password", slog.Int("attempt", attempt), slog.Int("max_attempts", g.maxAttempts))
	}
	return fmt.Errorf("%w: %d failed attempts", apperr.ErrLicenseDenied, g.maxAttempts)
}

// Activate writes the marker if password hashes to the secret.
func (g *Gate) Activate(password string) error {
	if !checksum.Equal(checksum.Sum([]byte(password)), g.secret) {
		return fmt.Errorf("%w: wrong password", apperr.ErrLicenseDenied)
	}
	if err := os.MkdirAll(filepath.Dir(g.markerPath), 0o700); err != nil {
		return fmt.Errorf("license: create marker dir: %w", err)
	}
	if err := os.WriteFile(g.markerPath, []byte(strings.ToLower(g.secret)+"\n"), 0o600); err != nil {
		return fmt.Errorf("license: write marker: %w", err)
	}
	g.logger.Info("license: activated", slog.String("marker", g.markerPath))
	return nil
}

// Deactivate removes the marker.
func (g *Gate) Deactivate() error {
	if err := os.Remove(g.markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("license: remove marker: %w", err)
	}
	return nil
}

// TerminalPrompter reads passwords without echo when in is a terminal and
// falls back to reading a plain line otherwise.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	lines *bufio.Reader
}

// Password implements Prompter.
func (p *TerminalPrompter) Password(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	fd := int(p.In.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if p.lines == nil {
		p.lines = bufio.NewReader(p.In)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
