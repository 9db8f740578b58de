package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrManifestInvalid indicates a drai.toml that cannot be used.
	ErrManifestInvalid = errors.New("invalid drai.toml")
	// ErrUnitInvalid indicates a bad [[unit]] entry.
	ErrUnitInvalid = errors.New("invalid [[unit]]")
)

// Settings are the front-end options shared by every unit.
type Settings struct {
	IncludeDirs      []string `toml:"include_dirs"`
	Defines          []string `toml:"defines"`
	Artifact         string   `toml:"artifact"`
	Target           string   `toml:"target"`
	KernelAttributes []string `toml:"kernel_attributes"`
}

// Unit is one translation unit of a batch run. Empty fields fall back to
// the [expand] settings; include dirs and defines are appended to them.
type Unit struct {
	Name        string   `toml:"name"`
	Input       string   `toml:"input"`
	Output      string   `toml:"output"`
	Artifact    string   `toml:"artifact"`
	IncludeDirs []string `toml:"include_dirs"`
	Defines     []string `toml:"defines"`
}

type config struct {
	Expand Settings `toml:"expand"`
	Units  []Unit   `toml:"unit"`
}

// Manifest is a decoded drai.toml. Paths in it are relative to Root.
type Manifest struct {
	Path   string
	Root   string
	Expand Settings
	Units  []Unit
}

// Load decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrManifestInvalid, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: %w: unknown key %q", path, ErrManifestInvalid, undecoded[0].String())
	}
	m := &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Expand: cfg.Expand,
		Units:  cfg.Units,
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]int, len(m.Units))
	for i := range m.Units {
		u := &m.Units[i]
		if strings.TrimSpace(u.Input) == "" {
			return fmt.Errorf("%w #%d: missing input", ErrUnitInvalid, i+1)
		}
		if u.Name == "" {
			u.Name = strings.TrimSuffix(filepath.Base(u.Input), filepath.Ext(u.Input))
		}
		if prev, ok := seen[u.Name]; ok {
			return fmt.Errorf("%w #%d: name %q already used by #%d", ErrUnitInvalid, i+1, u.Name, prev)
		}
		seen[u.Name] = i + 1
		if u.Artifact == "" && m.Expand.Artifact == "" {
			return fmt.Errorf("%w %q: no artifact (set [expand].artifact or unit artifact)", ErrUnitInvalid, u.Name)
		}
		if u.Output == "" {
			return fmt.Errorf("%w %q: missing output", ErrUnitInvalid, u.Name)
		}
	}
	return nil
}

// Resolved is a unit with every setting filled in and paths made absolute
// against the manifest root.
type Resolved struct {
	Name             string
	Input            string
	Output           string
	Artifact         string
	IncludeDirs      []string
	Defines          []string
	Target           string
	KernelAttributes []string
}

// Resolve merges u with the shared settings.
func (m *Manifest) Resolve(u Unit) Resolved {
	artifact := u.Artifact
	if artifact == "" {
		artifact = m.Expand.Artifact
	}
	r := Resolved{
		Name:             u.Name,
		Input:            m.abs(u.Input),
		Output:           m.abs(u.Output),
		Artifact:         m.abs(artifact),
		Defines:          slices.Concat(m.Expand.Defines, u.Defines),
		Target:           m.Expand.Target,
		KernelAttributes: slices.Clone(m.Expand.KernelAttributes),
	}
	for _, dir := range slices.Concat(m.Expand.IncludeDirs, u.IncludeDirs) {
		r.IncludeDirs = append(r.IncludeDirs, m.abs(dir))
	}
	return r
}

func (m *Manifest) abs(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Abs resolves a manifest-relative path.
func (m *Manifest) Abs(p string) string { return m.abs(p) }
