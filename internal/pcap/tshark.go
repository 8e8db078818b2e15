package pcap

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveTsharkPath finds the tshark binary used to export captures.
// Lookup order: explicit, $TSHARK, PATH, then the platform's Wireshark install.
func ResolveTsharkPath(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv("TSHARK")
	}
	if explicit != "" {
		return resolveExplicitTshark(explicit)
	}
	if path, err := exec.LookPath("tshark"); err == nil {
		return path, nil
	}
	for _, candidate := range wiresharkInstallPaths(runtime.GOOS) {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", tsharkNotFoundError(runtime.GOOS)
}

// A bare name is searched on PATH; anything with a directory must exist as given.
func resolveExplicitTshark(name string) (string, error) {
	if filepath.Base(name) != name {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("tshark path not found: %w", err)
		}
		return name, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", tsharkNotFoundError(runtime.GOOS)
	}
	return path, nil
}

// TsharkVersion returns the first line of `tshark -v`.
func TsharkVersion(tshark string) (string, error) {
	out, err := exec.Command(tshark, "-v").Output()
	if err != nil {
		return "", fmt.Errorf("tshark -v: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

func wiresharkInstallPaths(goos string) []string {
	switch goos {
	case "windows":
		var paths []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			if dir := os.Getenv(env); dir != "" {
				paths = append(paths, filepath.Join(dir, "Wireshark", "tshark.exe"))
			}
		}
		return paths
	case "darwin":
		return []string{"/Applications/Wireshark.app/Contents/MacOS/tshark"}
	default:
		return []string{"/usr/bin/tshark", "/usr/local/bin/tshark"}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func tsharkNotFoundError(goos string) error {
	where := "PATH"
	switch goos {
	case "darwin":
		where = "PATH or /Applications/Wireshark.app"
	case "windows":
		where = "PATH or the Wireshark install directory"
	}
	return fmt.Errorf("tshark not found in %s; install Wireshark or set capture.tshark_path", where)
}
