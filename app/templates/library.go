// Package templates loads the built-in prompt preset library from YAML
// files. Presets give users a starting prompt pair per article genre
// without requiring them to store their own templates first.
package templates

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

type Preset struct {
	Genre       string `yaml:"-"`
	Description string `yaml:"description"`
	TitlePrompt string `yaml:"title_prompt"`
	BodyPrompt  string `yaml:"body_prompt"`
}

type Library struct {
	presetsDir string
	cache      map[string]*Preset
	mu         sync.RWMutex
}

func NewLibrary(presetsDir string) *Library {
	return &Library{
		presetsDir: presetsDir,
		cache:      make(map[string]*Preset),
	}
}

func (l *Library) Run() error {
	if _, err := os.Stat(l.presetsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(l.presetsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive genre from filename (remove .yml extension)
		fileName := filepath.Base(file)
		genre := fileName[:len(fileName)-4]

		preset, err := l.LoadPreset(genre)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Prompt preset loaded", "genre", genre, "description", preset.Description)
	}

	return nil
}

func (l *Library) LoadPreset(genre string) (*Preset, error) {
	presetFile := filepath.Join(l.presetsDir, genre+".yml")

	data, err := os.ReadFile(presetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	preset.Genre = genre

	if err := l.validatePreset(&preset); err != nil {
		return nil, fmt.Errorf("invalid preset %s: %w", presetFile, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[preset.Genre] = &preset

	return &preset, nil
}

func (l *Library) Get(genre string) (*Preset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	preset, ok := l.cache[genre]
	if !ok {
		return nil, fmt.Errorf("prompt preset for genre '%s' not found", genre)
	}
	return preset, nil
}

// List returns all presets ordered by genre.
func (l *Library) List() []Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	presets := make([]Preset, 0, len(l.cache))
	for _, p := range l.cache {
		presets = append(presets, *p)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Genre < presets[j].Genre
	})
	return presets
}

func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

func (l *Library) validatePreset(preset *Preset) error {
	if preset == nil {
		return fmt.Errorf("preset is nil")
	}

	requiredFields := map[string]string{
		"genre":        preset.Genre,
		"title prompt": preset.TitlePrompt,
		"body prompt":  preset.BodyPrompt,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	return nil
}
