package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yz4230/shipci/internal/recipe"
	"gopkg.in/yaml.v3"
)

// FileName is the per-project pipeline definition looked up in the
// checked-out source tree.
const FileName = "shipci.yml"

const defaultStageTimeoutSeconds = 600

// Registry identifies the publish target.
type Registry struct {
	Host string `yaml:"host"`
}

// Pipeline is the declarative run configuration for one project:
// which branch triggers runs, the project's own install and test
// commands, the image recipe, and the registry to publish to.
type Pipeline struct {
	TargetBranch        string        `yaml:"target_branch"`
	Image               string        `yaml:"image"`
	Registry            Registry      `yaml:"registry"`
	InstallCommand      string        `yaml:"install"`
	TestCommand         string        `yaml:"test"`
	StageTimeoutSeconds int64         `yaml:"stage_timeout_seconds"`
	Recipe              recipe.Recipe `yaml:"recipe"`
}

func Default() Pipeline {
	return Pipeline{
		TargetBranch:        "main",
		InstallCommand:      "npm ci",
		TestCommand:         "npm test",
		StageTimeoutSeconds: defaultStageTimeoutSeconds,
		Recipe:              recipe.Default(),
	}
}

func (p *Pipeline) FillDefaults() {
	d := Default()
	if p.TargetBranch == "" {
		p.TargetBranch = d.TargetBranch
	}
	if p.InstallCommand == "" {
		p.InstallCommand = d.InstallCommand
	}
	if p.StageTimeoutSeconds <= 0 {
		p.StageTimeoutSeconds = d.StageTimeoutSeconds
	}
	p.Recipe.FillDefaults()
}

// Validate rejects configurations that would make a run ambiguous. A
// project without tests must declare an explicit no-op test command
// (`true`); the test stage is never skipped silently.
func (p *Pipeline) Validate() error {
	if p.TestCommand == "" {
		return fmt.Errorf("config: test command is required (use `true` for a no-op)")
	}
	if p.Image == "" {
		return fmt.Errorf("config: image name is required")
	}
	if err := p.Recipe.Validate(); err != nil {
		return err
	}
	return nil
}

// ImageRef is the registry-qualified image name.
func (p *Pipeline) ImageRef() string {
	if p.Registry.Host == "" {
		return p.Image
	}
	return p.Registry.Host + "/" + p.Image
}

func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	p.FillDefaults()
	return &p, nil
}

// Load reads the pipeline config file at path.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadDir loads the project config from a checked-out source tree,
// falling back to defaults when the project ships none.
func LoadDir(dir string) (*Pipeline, error) {
	p, err := Load(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		d := Default()
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
