package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scene is the YAML manifest describing what setup code loads into a runtime
// before the first tick.
type Scene struct {
	Name       string       `yaml:"name"`
	Components []string     `yaml:"components"`
	Timelines  []SceneFile  `yaml:"timelines"`
	Scripts    []SceneFile  `yaml:"scripts"`
	Tables     []SceneTable `yaml:"tables"`

	dir string
}

// SceneFile names an authored file. Relative paths resolve against the
// manifest's directory.
type SceneFile struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// SceneTable ingests a TMD file into a store table.
type SceneTable struct {
	Table string `yaml:"table"`
	File  string `yaml:"file"`
}

// LoadScene loads and validates a scene manifest.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scene) validate() error {
	for _, f := range append(append([]SceneFile{}, s.Timelines...), s.Scripts...) {
		if f.Name == "" || f.File == "" {
			return fmt.Errorf("timeline and script entries need name and file")
		}
	}
	for _, t := range s.Tables {
		if t.Table == "" || t.File == "" {
			return fmt.Errorf("table entries need table and file")
		}
	}
	return nil
}

// Resolve returns file relative to the manifest's directory.
func (s *Scene) Resolve(file string) string {
	if filepath.IsAbs(file) || s.dir == "" {
		return file
	}
	return filepath.Join(s.dir, file)
}
