package pcap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var captureExtensions = map[string]bool{
	".pcap":   true,
	".pcapng": true,
	".cap":    true,
}

// CollectPcapFiles returns the capture files under root in lexical order.
// Hidden directories are skipped.
func CollectPcapFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("capture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("capture directory %s is not a directory", root)
	}

	var captures []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if captureExtensions[strings.ToLower(filepath.Ext(path))] {
			captures = append(captures, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk captures: %w", err)
	}
	sort.Strings(captures)
	return captures, nil
}
