// Package pytestls implements the pytestls command: a pytest fixture
// language server communicating over stdio via JSON-RPC 2.0.
//
// Grounded on internal/cmd/skyls/run.go's flag parsing, stdio-wrapping, and
// Run/RunWithIO split (the latter for testability without a real stdin/
// stdout pair).
package pytestls

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pytestls/pytestls/internal/lsp"
	"github.com/pytestls/pytestls/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
)

// Run executes pytestls with the given arguments.
func Run(args []string) int {
	return RunWithIO(context.Background(), args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO allows custom IO for testing.
func RunWithIO(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		versionFlag bool
		verboseFlag bool
	)

	fs := flag.NewFlagSet("pytestls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")
	fs.BoolVar(&verboseFlag, "v", false, "verbose logging to stderr")

	fs.Usage = func() {
		writeln(stderr, "Usage: pytestls [flags]")
		writeln(stderr)
		writeln(stderr, "pytest fixture Language Server Protocol (LSP) implementation.")
		writeln(stderr)
		writeln(stderr, "The server communicates over stdio using JSON-RPC 2.0.")
		writeln(stderr, "Configure your editor to launch this binary as an LSP server.")
		writeln(stderr)
		writeln(stderr, "Features:")
		writeln(stderr, "  - Go to fixture definition")
		writeln(stderr, "  - Find fixture references")
		writeln(stderr, "  - Fixture-aware completion (scope-filtered)")
		writeln(stderr, "  - Hover documentation")
		writeln(stderr, "  - Workspace symbol search")
		writeln(stderr, "  - Diagnostics: undeclared fixtures, scope mismatches, dependency cycles")
		writeln(stderr)
		writeln(stderr, "Configuration:")
		writeln(stderr, "  pytestls.toml or .pytestls.toml in the workspace root, or the path")
		writeln(stderr, "  named by the PYTESTLS_CONFIG environment variable.")
		writeln(stderr)
		writeln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitError
	}

	if versionFlag {
		writef(stdout, "pytestls %s\n", version.String())
		return exitOK
	}

	if verboseFlag {
		log.SetOutput(stderr)
		log.SetFlags(log.Ltime | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := lsp.NewServer(cancel)

	rwc := &stdioConn{Reader: stdin, Writer: stdout}
	conn := lsp.NewConn(rwc, server)
	server.SetConn(conn)

	log.Printf("pytestls: starting server")

	if err := conn.Run(ctx); err != nil && ctx.Err() == nil {
		writef(stderr, "pytestls: %v\n", err)
		return exitError
	}

	log.Printf("pytestls: server stopped")
	return exitOK
}

// stdioConn wraps stdin/stdout as an io.ReadWriteCloser.
type stdioConn struct {
	io.Reader
	io.Writer
}

func (s *stdioConn) Close() error {
	return nil
}

func writef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

func writeln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}
