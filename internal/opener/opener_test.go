package opener

import (
	"context"
	"os/exec"
	"slices"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"linux", "xdg-open", []string{"/d/biblioteca_livro.xlsx"}},
		{"freebsd", "xdg-open", []string{"/d/biblioteca_livro.xlsx"}},
		{"darwin", "open", []string{"/d/biblioteca_livro.xlsx"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "/d/biblioteca_livro.xlsx"}},
	}
	for _, tt := range tests {
		name, args := Command(tt.goos, "/d/biblioteca_livro.xlsx")
		if name != tt.name || !slices.Equal(args, tt.args) {
			t.Errorf("%s: got %s %v", tt.goos, name, args)
		}
	}
}

func TestOpenUsesCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	orig := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = orig })

	o := commandOpener{goos: "linux"}
	if err := o.Open(context.Background(), "/d/biblioteca_geral.xlsx"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotName != "xdg-open" || !slices.Equal(gotArgs, []string{"/d/biblioteca_geral.xlsx"}) {
		t.Errorf("ran %s %v", gotName, gotArgs)
	}
}

func TestOpenMissingProgram(t *testing.T) {
	orig := commandContext
	commandContext = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "biblioteca-no-such-program")
	}
	t.Cleanup(func() { commandContext = orig })

	if err := (commandOpener{goos: "linux"}).Open(context.Background(), "x.xlsx"); err == nil {
		t.Error("expected error for missing program")
	}
}
