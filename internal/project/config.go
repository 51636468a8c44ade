package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in dotgate.toml.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Config is the decoded dotgate.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Check   CheckConfig   `toml:"check"`
	Cache   CacheConfig   `toml:"cache"`
}

type PackageConfig struct {
	Name string `toml:"name"`
	// Publishable marks a package consumed by other Dart packages; it enables
	// the public-API checks.
	Publishable bool `toml:"publishable"`
}

type CheckConfig struct {
	// Units lists unit files, directories or glob patterns (with **) relative
	// to the project root.
	Units            []string `toml:"units"`
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	Jobs             int      `toml:"jobs"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir is relative to the project root; empty means the user cache directory.
	Dir string `toml:"dir"`
}

// Manifest is a located and decoded dotgate.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration written by `dotgate init`.
func Default(name string) Config {
	return Config{
		Package: PackageConfig{Name: name},
		Check: CheckConfig{
			Units:          []string{"units"},
			MaxDiagnostics: 100,
		},
		Cache: CacheConfig{Enabled: true, Dir: ".dotgate/cache"},
	}
}

// LoadConfig decodes path. Unknown keys are rejected so typos do not
// silently disable a check.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || cfg.Package.Name == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if cfg.Check.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [check].max_diagnostics must not be negative", path)
	}
	if cfg.Check.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	if !meta.IsDefined("cache", "enabled") && meta.IsDefined("cache") {
		cfg.Cache.Enabled = true
	}
	return cfg, nil
}

// Load finds dotgate.toml above startDir and decodes it. ok is false when no
// manifest exists.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// UnitPaths resolves [check].units against the project root.
func (m *Manifest) UnitPaths() []string {
	out := make([]string, 0, len(m.Config.Check.Units))
	for _, u := range m.Config.Check.Units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if filepath.IsAbs(u) {
			out = append(out, u)
			continue
		}
		out = append(out, filepath.Join(m.Root, filepath.FromSlash(u)))
	}
	return out
}

// CacheDir resolves [cache].dir; empty means the user cache directory.
func (m *Manifest) CacheDir() string {
	dir := strings.TrimSpace(m.Config.Cache.Dir)
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}

// WriteConfig writes cfg to dir/dotgate.toml and refuses to overwrite.
func WriteConfig(dir string, cfg Config) (string, error) {
	path := filepath.Join(dir, ManifestName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 G304 -- project file
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s already exists", path)
		}
		return "", err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return path, f.Close()
}
