package recipe

import (
	"fmt"
	"strings"
	"text/template"
)

// InstallMode selects how project dependencies are materialized inside
// the image.
type InstallMode string

const (
	// InstallModeFull installs every declared dependency, dev tooling
	// included.
	InstallModeFull InstallMode = "full"
	// InstallModeProduction installs from the lockfile and prunes dev
	// dependencies.
	InstallModeProduction InstallMode = "production"
)

// Recipe is the single parameterized container recipe. The historical
// dev and production image definitions are both instantiations of this
// type; only the field values differ.
type Recipe struct {
	BaseImage   string      `yaml:"base_image"`
	WorkDir     string      `yaml:"workdir"`
	Manifests   []string    `yaml:"manifests"`
	InstallMode InstallMode `yaml:"install_mode"`
	Install     string      `yaml:"install"`
	Port        int         `yaml:"port"`
	Start       []string    `yaml:"start"`
}

// Default is the canonical production recipe: slim base, pruned
// lockfile install, direct entry-point start on port 8080.
func Default() Recipe {
	return Recipe{
		BaseImage:   "node:18-slim",
		WorkDir:     "/app",
		Manifests:   []string{"package*.json"},
		InstallMode: InstallModeProduction,
		Port:        8080,
		Start:       []string{"node", "index.js"},
	}
}

func (r *Recipe) FillDefaults() {
	d := Default()
	if r.BaseImage == "" {
		r.BaseImage = d.BaseImage
	}
	if r.WorkDir == "" {
		r.WorkDir = d.WorkDir
	}
	if len(r.Manifests) == 0 {
		r.Manifests = d.Manifests
	}
	if r.InstallMode == "" {
		r.InstallMode = d.InstallMode
	}
	if r.Port == 0 {
		r.Port = d.Port
	}
	if len(r.Start) == 0 {
		r.Start = d.Start
	}
}

func (r *Recipe) Validate() error {
	if r.BaseImage == "" {
		return fmt.Errorf("recipe: base image is required")
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("recipe: invalid port %d", r.Port)
	}
	if len(r.Start) == 0 {
		return fmt.Errorf("recipe: start command is required")
	}
	switch r.InstallMode {
	case InstallModeFull, InstallModeProduction:
	default:
		return fmt.Errorf("recipe: unknown install mode %q", r.InstallMode)
	}
	return nil
}

// InstallCommand returns the dependency install command, derived from
// the install mode unless overridden.
func (r *Recipe) InstallCommand() string {
	if r.Install != "" {
		return r.Install
	}
	if r.InstallMode == InstallModeProduction {
		return "npm ci --omit=dev"
	}
	return "npm install"
}

// Manifests are copied before the full source tree so the dependency
// layer is reused across builds that only change source.
var dockerfileTmpl = template.Must(template.New("dockerfile").Parse(
	`FROM {{.BaseImage}}
WORKDIR {{.WorkDir}}
{{range .Manifests}}COPY {{.}} ./
{{end}}RUN {{.InstallCommand}}
COPY . .
EXPOSE {{.Port}}
CMD [{{.StartJSON}}]
`))

// StartJSON renders the start command in exec form.
func (r *Recipe) StartJSON() string {
	parts := make([]string, len(r.Start))
	for i, s := range r.Start {
		parts[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(parts, ", ")
}

// Render produces the Dockerfile for this recipe. Rendering is pure:
// the same recipe always yields the same bytes.
func (r *Recipe) Render() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := dockerfileTmpl.Execute(&b, r); err != nil {
		return "", fmt.Errorf("render dockerfile: %w", err)
	}
	return b.String(), nil
}
