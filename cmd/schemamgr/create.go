package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Scaffold a new version directory with install/ and rollback/ subdirectories",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name := "migration"
		if len(args) > 0 {
			name = args[0]
		}
		path, err := createVersion(cfg.Dir, name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(s, "_")
}

// createVersion scaffolds <dir>/<timestamp>_<slug>/{install,rollback}/01-<slug>.sql,
// timestamped so freshly created versions sort last under the engine's
// ASCII ordering.
func createVersion(dir, name string, now time.Time) (string, error) {
	slug := slugify(name)
	if slug == "" {
		slug = "migration"
	}
	versionName := now.UTC().Format("20060102150405") + "_" + slug
	versionDir := filepath.Join(dir, versionName)

	for _, sub := range []string{"install", "rollback"} {
		if err := os.MkdirAll(filepath.Join(versionDir, sub), 0o750); err != nil {
			return "", err
		}
	}

	installPath := filepath.Join(versionDir, "install", "01-"+slug+".sql")
	if err := os.WriteFile(installPath, []byte("-- "+name+"\n"), 0o640); err != nil {
		return "", err
	}
	rollbackPath := filepath.Join(versionDir, "rollback", "01-"+slug+".sql")
	if err := os.WriteFile(rollbackPath, []byte("-- revert "+name+"\n"), 0o640); err != nil {
		return "", err
	}
	return versionDir, nil
}
