package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Camp is one site; equipment identifiers of the camp start with one of Prefixes.
type Camp struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Prefixes []string `yaml:"prefixes" json:"prefixes" validate:"required,min=1,dive,required"`
}

type CampGroup struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Camps []Camp `yaml:"camps" json:"camps" validate:"required,min=1,unique=Name,dive"`
}

// CampConfig holds the camp groups and the service-type keywords an asset's
// SOT Type must contain to be reported.
type CampConfig struct {
	Keywords []string    `yaml:"keywords" json:"keywords" validate:"required,min=1,dive,required"`
	Groups   []CampGroup `yaml:"groups" json:"groups" validate:"required,min=1,unique=Name,dive"`
}

var DefaultServiceKeywords = []string{
	"CCTV",
	"DVMR/NVR",
	"Electronic Access Control System",
	"Intrusion Detection Systems",
	"VEHICULAR ARM BARRIER SYSTEM",
	"Host",
	"Network Switch",
}

func DefaultCampConfig() *CampConfig {
	return &CampConfig{
		Keywords: append([]string(nil), DefaultServiceKeywords...),
		Groups: []CampGroup{
			{Name: "AC1", Camps: []Camp{
				{Name: "CLC", Prefixes: []string{"CLC-"}},
				{Name: "MJC", Prefixes: []string{"MJC-"}},
				{Name: "BPC", Prefixes: []string{"BPC-"}},
			}},
			{Name: "AC2", Camps: []Camp{
				{Name: "MBC", Prefixes: []string{"MBC-"}},
				{Name: "KC", Prefixes: []string{"KC-", "KC2-", "KC3-"}},
				{Name: "SMC", Prefixes: []string{"SMC-"}},
			}},
			{Name: "AC3", Camps: []Camp{
				{Name: "MWC", Prefixes: []string{"MWC-"}},
				{Name: "RRRC1", Prefixes: []string{"RRRC1-"}},
			}},
		},
	}
}

var (
	campConfig   *CampConfig
	campConfigMu sync.RWMutex
	validate     = validator.New()
)

// ParseCampConfig decodes and validates a YAML camp configuration.
func ParseCampConfig(data []byte) (*CampConfig, error) {
	var cfg CampConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode camp config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid camp config: %w", err)
	}
	return &cfg, nil
}

func LoadCampConfigFile(path string) (*CampConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read camp config %q: %w", path, err)
	}
	return ParseCampConfig(data)
}

// GetCampConfig returns the active configuration. CAMP_CONFIG_FILE is read on
// first use; without it the built-in groups apply.
func GetCampConfig() (*CampConfig, error) {
	campConfigMu.RLock()
	cfg := campConfig
	campConfigMu.RUnlock()
	if cfg != nil {
		return cfg, nil
	}

	cfg = DefaultCampConfig()
	if path := strings.TrimSpace(os.Getenv("CAMP_CONFIG_FILE")); path != "" {
		loaded, err := LoadCampConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	SetCampConfig(cfg)
	return cfg, nil
}

// SetCampConfig replaces the active configuration.
func SetCampConfig(cfg *CampConfig) {
	campConfigMu.Lock()
	campConfig = cfg
	campConfigMu.Unlock()
}

func (c *CampConfig) FindGroup(name string) (*CampGroup, bool) {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

func (c *CampConfig) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		names = append(names, g.Name)
	}
	return names
}
