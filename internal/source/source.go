// Package source loads, transforms and serializes the immutable tree of
// migration scripts a Manager executes against. Sources is read once at
// load time and shared freely thereafter; Map and the save path never
// mutate an existing instance.
package source

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/kvlabs/schemamgr/internal/migerr"
	"github.com/kvlabs/schemamgr/internal/script"
)

// Sources is the immutable, ordered tree of VersionBundles loaded from one
// root. Construct via Load; the zero value is not meaningful.
type Sources struct {
	versions map[string]script.VersionBundle
}

// New wraps a pre-built map of bundles, copying it defensively.
func New(versions map[string]script.VersionBundle) Sources {
	out := make(map[string]script.VersionBundle, len(versions))
	for k, v := range versions {
		out[k] = v
	}
	return Sources{versions: out}
}

// VersionNames returns every loaded version, ASCII-ascending.
func (s Sources) VersionNames() []string {
	names := make([]string, 0, len(s.versions))
	for n := range s.versions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetVersionBundle looks up one version's bundle.
func (s Sources) GetVersionBundle(version string) (script.VersionBundle, bool) {
	b, ok := s.versions[version]
	return b, ok
}

// Len reports how many versions are loaded.
func (s Sources) Len() int { return len(s.versions) }

// Map returns a new Sources where every script's content has been replaced
// by fn(oldContent, opts); version and script structure is unchanged. Visits
// versions in ASCII-ascending order, each bundle install-then-rollback.
func (s Sources) Map(fn script.MapFunc) (Sources, error) {
	out := make(map[string]script.VersionBundle, len(s.versions))
	for _, name := range s.VersionNames() {
		mapped, err := s.versions[name].Map(fn)
		if err != nil {
			return Sources{}, err
		}
		out[name] = mapped
	}
	return Sources{versions: out}, nil
}

// Load dispatches on uri's scheme. Only the file scheme is implemented;
// http+tar+gz and https+tar+gz are recognized but deferred, and any other
// scheme is rejected outright.
func Load(ctx context.Context, rawURI string) (Sources, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return Sources{}, migerr.InvalidArgument("uri", "%v", err)
	}
	switch u.Scheme {
	case "file", "":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			path = rawURI
		}
		return loadFromFilesystem(ctx, path)
	case "http+tar+gz", "https+tar+gz":
		return Sources{}, migerr.ErrNotImplemented
	default:
		return Sources{}, migerr.ErrUnsupportedScheme
	}
}

// LoadFromFilesystem loads directly from a root directory, bypassing URI
// parsing, for callers that already have a filesystem path in hand.
func LoadFromFilesystem(ctx context.Context, rootDir string) (Sources, error) {
	return loadFromFilesystem(ctx, rootDir)
}

func loadFromFilesystem(ctx context.Context, rootDir string) (Sources, error) {
	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return Sources{}, migerr.WrongMigrationData("migration directory %q does not exist", rootDir)
	}
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return Sources{}, err
	}

	versions := make(map[string]script.VersionBundle)
	for _, e := range entries {
		if err := checkCancel(ctx); err != nil {
			return Sources{}, err
		}
		if !e.IsDir() {
			continue
		}
		versionDir := filepath.Join(rootDir, e.Name())
		install, err := loadDirectionScripts(ctx, filepath.Join(versionDir, "install"))
		if err != nil {
			return Sources{}, err
		}
		rollback, err := loadDirectionScripts(ctx, filepath.Join(versionDir, "rollback"))
		if err != nil {
			return Sources{}, err
		}
		versions[e.Name()] = script.NewVersionBundle(e.Name(), install, rollback)
	}
	return Sources{versions: versions}, nil
}

func loadDirectionScripts(ctx context.Context, dir string) (map[string]script.Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]script.Script{}, nil
		}
		return nil, err
	}
	out := make(map[string]script.Script, len(entries))
	for _, e := range entries {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		out[e.Name()] = script.New(e.Name(), abs, string(content))
	}
	return out, nil
}

// SaveToFilesystem writes every version's scripts under destDir, which must
// already exist. Per-version install/ and rollback/ subdirectories are
// created as needed; destDir itself is never created.
func (s Sources) SaveToFilesystem(ctx context.Context, destDir string) error {
	info, err := os.Stat(destDir)
	if err != nil || !info.IsDir() {
		return migerr.InvalidArgument("destinationDirectory", "directory %q does not exist", destDir)
	}
	for _, name := range s.VersionNames() {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		bundle := s.versions[name]
		versionDir := filepath.Join(destDir, name)
		if err := writeDirection(ctx, filepath.Join(versionDir, "install"), bundle.InstallScripts); err != nil {
			return err
		}
		if err := writeDirection(ctx, filepath.Join(versionDir, "rollback"), bundle.RollbackScripts); err != nil {
			return err
		}
	}
	return nil
}

func writeDirection(ctx context.Context, dir string, scripts map[string]script.Script) error {
	if err := checkCancel(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	names := make([]string, 0, len(scripts))
	for n := range scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(scripts[name].Content), 0o640); err != nil {
			return err
		}
	}
	return nil
}

func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return migerr.ErrCancelled
	default:
		return nil
	}
}
