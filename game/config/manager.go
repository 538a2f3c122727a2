package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/gridpath/game/grid"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// DefaultPresetName is loaded as the default when present
const DefaultPresetName = "open"

// PresetInfo summarizes a preset file
type PresetInfo struct {
	Filename    string `json:"filename"`
	PresetID    string `json:"preset_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Walls       int    `json:"walls"`
}

// Manager handles preset layout loading and caching
type Manager struct {
	presetDir     string
	defaultPreset *grid.Layout
	presets       map[string]*grid.Layout
	mu            sync.RWMutex
}

// NewManager creates a new preset manager
func NewManager(presetDir string) (*Manager, error) {
	if _, err := os.Stat(presetDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("preset directory does not exist: %s", presetDir)
	}

	m := &Manager{
		presetDir: presetDir,
		presets:   make(map[string]*grid.Layout),
	}

	if err := m.loadDefaultPreset(); err != nil {
		return nil, fmt.Errorf("failed to load default preset: %w", err)
	}

	return m, nil
}

// LoadPreset loads a preset by name
func (m *Manager) LoadPreset(name string) (*grid.Layout, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, ErrPresetNotFound
	}

	m.mu.RLock()
	if preset, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return preset, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if preset, exists := m.presets[name]; exists {
		return preset, nil
	}

	preset, err := ReadPreset(filepath.Join(m.presetDir, name+".json"))
	if err != nil {
		return nil, err
	}

	m.presets[name] = preset
	return preset, nil
}

// ReadPreset reads and validates a single preset file.
func ReadPreset(path string) (*grid.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset grid.Layout
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("%w: failed to parse preset: %v", ErrInvalidPreset, err)
	}

	if err := grid.ValidateLayout(&preset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	return &preset, nil
}

// ListPresets returns information about all valid presets, sorted by id
func (m *Manager) ListPresets() ([]*PresetInfo, error) {
	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var presets []*PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		preset, err := m.LoadPreset(id)
		if err != nil {
			// Skip invalid presets
			continue
		}

		presets = append(presets, &PresetInfo{
			Filename:    entry.Name(),
			PresetID:    id,
			Name:        preset.Name,
			Description: preset.Description,
			Rows:        preset.Rows,
			Cols:        preset.Cols,
			Walls:       len(preset.Walls),
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].PresetID < presets[j].PresetID })
	return presets, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *grid.Layout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPreset
}

func (m *Manager) loadDefaultPreset() error {
	preset, err := m.LoadPreset(DefaultPresetName)
	if err != nil {
		presets, listErr := m.ListPresets()
		if listErr != nil || len(presets) == 0 {
			m.setDefault(MinimalPreset())
			return nil
		}

		preset, err = m.LoadPreset(presets[0].PresetID)
		if err != nil {
			m.setDefault(MinimalPreset())
			return nil
		}
	}

	m.setDefault(preset)
	return nil
}

func (m *Manager) setDefault(preset *grid.Layout) {
	m.mu.Lock()
	m.defaultPreset = preset
	m.mu.Unlock()
}

// MinimalPreset is an empty grid of the default size
func MinimalPreset() *grid.Layout {
	size := grid.Size{Rows: grid.DefaultSize, Cols: grid.DefaultSize}
	step := grid.DefaultStepDelay
	return &grid.Layout{
		Name:        "default",
		Description: "Empty grid",
		Rows:        size.Rows,
		Cols:        size.Cols,
		Start:       grid.DefaultStart(),
		End:         grid.DefaultEnd(size),
		Walls:       []grid.Position{},
		StepMs:      &step,
	}
}
