package pcap

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExportJSON decodes input with `tshark -T json` and writes the export to
// output. It returns the number of decoded records.
func ExportJSON(ctx context.Context, tshark, input, output string) (int, error) {
	if _, err := os.Stat(input); err != nil {
		return 0, fmt.Errorf("capture %s: %w", input, err)
	}

	cmd := exec.CommandContext(ctx, tshark, "-r", input, "-T", "json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return 0, fmt.Errorf("tshark exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return 0, fmt.Errorf("execute tshark: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return 0, fmt.Errorf("parse tshark JSON: %w", err)
	}
	if err := os.WriteFile(output, stdout.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(records), nil
}
