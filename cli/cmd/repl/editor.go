package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/tmplexpr/log"
)

const defaultEditor = "vi"

// ErrEditDeclined is returned when the user declines to fix a variables
// file that failed to decode.
var ErrEditDeclined = errors.New("variables edit declined")

// editVarsCommand implements [tea.ExecCommand] for the edit-decode-retry
// loop over the variables frame. The frame is written as YAML to a temp
// file and opened in the user's editor. On a decode error the user is
// prompted to re-edit; declining returns [ErrEditDeclined].
type editVarsCommand struct {
	vars      map[string]any
	ctxFunc   func() context.Context
	newVars   map[string]any
	cancelled bool
	logger    log.Logger
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editVarsCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editVarsCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editVarsCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-decode-retry loop. Saving an empty file cancels the
// edit.
func (c *editVarsCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeVars(c.vars)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "tmplexpr-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			c.cancelled = true

			return nil
		}

		vars, decodeErr := decodeVars(data)
		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			c.newVars = vars

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		if !confirm(c.stdin) {
			return ErrEditDeclined
		}

		content = data
	}
}

// encodeVars renders vars as a YAML document. An empty frame is an empty
// mapping so that the editor never opens an empty file.
func encodeVars(vars map[string]any) ([]byte, error) {
	if len(vars) == 0 {
		return []byte("{}\n"), nil
	}

	return yaml.MarshalWithOptions(vars, yaml.Indent(2))
}

// decodeVars parses a YAML mapping of variable bindings.
func decodeVars(data []byte) (map[string]any, error) {
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, err
	}

	if vars == nil {
		vars = map[string]any{}
	}

	return vars, nil
}

// confirm reads one line from r and reports whether it is not a refusal.
func confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "n", "no":
		return false
	}

	return true
}

// runEditor opens path in $EDITOR and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
