package pkgmeta

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the descriptor file marking a package root.
const ManifestFileName = "package.yaml"

// Manifest is one package descriptor: the package name and the names of
// the packages it builds against.
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Dependencies []string `yaml:"dependencies"`
}

// Load reads and validates one package manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("manifest %s has no package name", path)
	}
	return &manifest, nil
}

// Discover walks the source directory and returns the path of every package
// manifest, honoring the workspace ignore patterns. Nested packages are
// reported too; containment queries resolve to the deepest root.
func Discover(srcDir string) ([]string, error) {
	patterns, err := GetIgnorePatterns(srcDir)
	if err != nil {
		return nil, err
	}

	var manifests []string
	err = filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relative, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			relative = path
		}
		if d.IsDir() {
			if path != srcDir && (IsDefaultIgnored(d.Name()) || IsIgnored(relative, patterns)) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ManifestFileName && !IsIgnored(relative, patterns) {
			manifests = append(manifests, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for packages: %w", srcDir, err)
	}
	return manifests, nil
}
