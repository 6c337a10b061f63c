package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHubURL is used when neither the environment nor config.json
// names a hub.
const DefaultHubURL = "https://hub-production-f423.up.railway.app"

// Config holds process-wide configuration. It is resolved once at startup
// and passed explicitly to every component that talks to the hub, the CDN,
// or the local drops directory; nothing re-resolves it later.
type Config struct {
	// HubURL is the base URL of the drop hub API.
	HubURL string `json:"hub_url,omitempty"`

	// APIKey authenticates requests to the hub. Usually resolved from the
	// environment rather than written to config.json.
	APIKey string `json:"api_key,omitempty"`

	// CDNUploadURL is the endpoint local mode posts source files to.
	// Empty means the upload step is skipped (treated as a failed upload,
	// which is non-fatal).
	CDNUploadURL string `json:"cdn_upload_url,omitempty"`

	// DropsDir is the root of the local drops tree (per-sender
	// subdirectories plus the manifest). Defaults to ~/.drop/drops.
	DropsDir string `json:"drops_dir,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// envFileKey is the assignment scanned for in candidate env files.
const envFileKey = "INGEST_API_KEY="

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HubURL: DefaultHubURL,
	}
}

// Load resolves configuration from baseDir/config.json plus the
// environment. Precedence for the hub URL and API key is environment over
// file over default. The baseDir parameter allows tests to use t.TempDir()
// instead of ~/.drop.
func Load(baseDir string) (*Config, error) {
	path := filepath.Join(baseDir, "config.json")
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	// First run: persist the defaults so there is a file to edit. Never
	// written with a resolved key, so credentials stay in the environment.
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if saveErr := Save(baseDir, DefaultConfig()); saveErr != nil {
			return nil, saveErr
		}
	}

	if url := os.Getenv("DROP_HUB_URL"); url != "" {
		cfg.HubURL = url
	}
	if url := os.Getenv("DROP_CDN_URL"); url != "" {
		cfg.CDNUploadURL = url
	}
	if cfg.DropsDir == "" {
		cfg.DropsDir = filepath.Join(baseDir, "drops")
	}

	if key := resolveAPIKey(envFileCandidates(baseDir)); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

// resolveAPIKey applies the credential precedence: DROP_API_KEY, then
// INGEST_API_KEY, then the first candidate env file containing an
// INGEST_API_KEY= assignment. Returns "" when nothing resolves.
func resolveAPIKey(candidates []string) string {
	if key := os.Getenv("DROP_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("INGEST_API_KEY"); key != "" {
		return key
	}
	for _, path := range candidates {
		if key := scanEnvFile(path); key != "" {
			return key
		}
	}
	return ""
}

// envFileCandidates returns the ordered list of env files scanned for a
// key assignment when the environment has none.
func envFileCandidates(baseDir string) []string {
	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".drop-env"))
	}
	candidates = append(candidates, filepath.Join(baseDir, "env"))
	return candidates
}

// scanEnvFile looks for an INGEST_API_KEY= line in the given file.
// Missing or unreadable files yield "".
func scanEnvFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, envFileKey) {
			value := strings.TrimSpace(strings.TrimPrefix(line, envFileKey))
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.HubURL == "" {
		cfg.HubURL = DefaultHubURL
	}

	return cfg, nil
}

// Save writes the config to baseDir/config.json.
func Save(baseDir string, cfg *Config) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(baseDir, "config.json"), data, 0600)
}
