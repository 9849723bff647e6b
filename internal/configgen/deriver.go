package configgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agentforge/internal/progress"
	"agentforge/internal/types"
)

// DefaultAPIKeyVar is the secret the generated agents themselves need to
// call their LLM provider; it is always part of the .env template.
const DefaultAPIKeyVar = "GROQ_API_KEY"

// oauthKeywords mark assembled code as probably needing OAuth credentials
// even when no component declared a credentials file.
var oauthKeywords = []string{
	"oauth", "credentials", "gmail", "google", "client_secrets",
}

// Bundle lists the template files one derivation produced (or found already
// present and left alone).
type Bundle struct {
	EnvPath        string
	ConfigPaths    map[string]string
	CredentialPath string
}

// Deriver writes configuration templates for assembled agents.
type Deriver struct {
	OutputDir string
	APIKeyVar string
	reporter  progress.Reporter
}

// NewDeriver builds a deriver writing under outputDir. An empty apiKeyVar
// selects the default; a nil reporter is replaced with a no-op.
func NewDeriver(outputDir, apiKeyVar string, reporter progress.Reporter) *Deriver {
	if apiKeyVar == "" {
		apiKeyVar = DefaultAPIKeyVar
	}
	if reporter == nil {
		reporter = progress.Nop()
	}
	return &Deriver{OutputDir: outputDir, APIKeyVar: apiKeyVar, reporter: reporter}
}

// Derive collects declared requirements across components and materializes
// the templates. assembledSource feeds the OAuth heuristic. Existing files
// at any computed path are never touched; a warning is emitted and the path
// is reported as-is.
func (d *Deriver) Derive(agentName string, components []types.GeneratedComponent, assembledSource string) (*Bundle, error) {
	if err := os.MkdirAll(d.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	name := SanitizeName(agentName)
	envVars, configFiles := d.collect(components)

	bundle := &Bundle{ConfigPaths: make(map[string]string)}

	envPath, err := d.writeEnvTemplate(name, envVars)
	if err != nil {
		return nil, err
	}
	bundle.EnvPath = envPath

	for _, configName := range configFiles {
		clean := strings.TrimSuffix(configName, ".json")
		path, err := d.writeConfigStub(name, clean)
		if err != nil {
			return nil, err
		}
		bundle.ConfigPaths[clean] = path
	}

	if d.needsOAuth(assembledSource) && bundle.ConfigPaths["credentials"] == "" {
		path, err := d.writeConfigStub(name, "credentials")
		if err != nil {
			return nil, err
		}
		bundle.CredentialPath = path
	}

	return bundle, nil
}

// collect unions declared env vars and config files across components,
// always including the collaborator API key, sorted for determinism.
func (d *Deriver) collect(components []types.GeneratedComponent) (envVars, configFiles []string) {
	envSet := map[string]bool{d.APIKeyVar: true}
	configSet := map[string]bool{}
	for i := range components {
		for _, v := range components[i].Metadata.EnvVars {
			if v = strings.TrimSpace(v); v != "" {
				envSet[v] = true
			}
		}
		for _, f := range components[i].Metadata.ConfigFiles {
			if f = strings.TrimSpace(f); f != "" {
				configSet[f] = true
			}
		}
	}
	for v := range envSet {
		envVars = append(envVars, v)
	}
	for f := range configSet {
		configFiles = append(configFiles, f)
	}
	sort.Strings(envVars)
	sort.Strings(configFiles)
	return envVars, configFiles
}

func (d *Deriver) writeEnvTemplate(name string, envVars []string) (string, error) {
	path := filepath.Join(d.OutputDir, name+".env")
	if fileExists(path) {
		d.warnExisting(path)
		return path, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Configuration for %s\n", name)
	b.WriteString("# Fill in the values below before running the agent\n\n")
	for _, v := range envVars {
		b.WriteString(v)
		b.WriteString("=\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing env template: %w", err)
	}
	d.emit(progress.LevelInfo, "%s created (needs manual configuration)", filepath.Base(path))
	return path, nil
}

// writeConfigStub writes one JSON template. The skeleton depends on what
// the name suggests the file is for.
func (d *Deriver) writeConfigStub(name, clean string) (string, error) {
	path := filepath.Join(d.OutputDir, fmt.Sprintf("%s_%s.json", name, SanitizeName(clean)))
	if fileExists(path) {
		d.warnExisting(path)
		return path, nil
	}

	content := stubContent(name, clean)
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding config stub %s: %w", clean, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing config stub %s: %w", clean, err)
	}
	d.emit(progress.LevelInfo, "%s created (needs manual configuration)", filepath.Base(path))
	return path, nil
}

// stubContent picks a skeleton by name. Credential-like names get a Google
// OAuth "installed app" template, settings-like names a bare settings stub,
// everything else a generic fill-me-in document.
func stubContent(agentName, clean string) map[string]any {
	lower := strings.ToLower(clean)
	switch {
	case strings.Contains(lower, "credentials") || strings.Contains(lower, "oauth"):
		return map[string]any{
			"_comment": fmt.Sprintf("OAuth2 credentials template for %s - replace with your real credentials", agentName),
			"_instructions": []string{
				"1. Go to https://console.cloud.google.com/",
				"2. Create or select a project",
				"3. Enable the API the agent needs (Gmail, Drive, ...)",
				"4. Create OAuth 2.0 credentials",
				"5. Download the JSON and replace this content",
			},
			"installed": map[string]any{
				"client_id":                   "YOUR_CLIENT_ID.apps.googleusercontent.com",
				"project_id":                  "your-project-id",
				"auth_uri":                    "https://accounts.google.com/o/oauth2/auth",
				"token_uri":                   "https://oauth2.googleapis.com/token",
				"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
				"client_secret":               "YOUR_CLIENT_SECRET",
				"redirect_uris":               []string{"http://localhost"},
			},
		}
	case strings.Contains(lower, "config") || strings.Contains(lower, "settings"):
		return map[string]any{
			"_comment":      fmt.Sprintf("Configuration %s for %s", clean, agentName),
			"_instructions": "Add your configuration parameters here",
		}
	default:
		return map[string]any{
			"_comment":      fmt.Sprintf("File %s for %s", clean, agentName),
			"_instructions": "Fill in this file as the agent requires",
		}
	}
}

func (d *Deriver) needsOAuth(assembledSource string) bool {
	lower := strings.ToLower(assembledSource)
	for _, kw := range oauthKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (d *Deriver) warnExisting(path string) {
	d.emit(progress.LevelWarning, "%s already exists, not overwritten", filepath.Base(path))
}

func (d *Deriver) emit(level progress.Level, format string, args ...any) {
	d.reporter.Emit(progress.Event{Message: fmt.Sprintf(format, args...), Level: level})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
