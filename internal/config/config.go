package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyDatabasePath   = "database.path"
	KeyThemes         = "themes"
	KeyColorScheme    = "color-scheme"
	KeyDetectInterval = "detect.interval"
	KeyOutputFormat   = "output.format"
	KeyDebug          = "debug"
)

const (
	// DefaultDetectInterval is how often the OS color scheme is re-read.
	DefaultDetectInterval = 2 * time.Second

	ColorSchemeAuto  = "auto"
	ColorSchemeDark  = "dark"
	ColorSchemeLight = "light"

	envPrefix = "THEMEKEEPER"
	configDir = ".themekeeper"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error

	// resolved during configure so SaveAdditionalThemes writes where Initialize read.
	activeUserConfig    string
	activeProjectConfig string
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice fetches a list value. A single comma separated string
// (as set through the environment) is split into its parts.
func GetStringSlice(key string) []string {
	v, err := getViper()
	if err != nil {
		return nil
	}
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return fmt.Errorf("load project config: %w", err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	activeUserConfig = userConfigPath
	activeProjectConfig = projectConfigPath
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, configDir, "config.yaml"), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, configDir, "config.yaml")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "")
	v.SetDefault(KeyThemes, []string{})
	v.SetDefault(KeyColorScheme, ColorSchemeAuto)
	v.SetDefault(KeyDetectInterval, DefaultDetectInterval)
	v.SetDefault(KeyOutputFormat, "rich")
	v.SetDefault(KeyDebug, false)
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
//
//nolint:unused // Used in config_test.go
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
	activeUserConfig = ""
	activeProjectConfig = ""
}

// ResetForTesting clears package state for tests in other packages.
// Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "config.yaml")))
	return reset
}

// SaveAdditionalThemes merges names into the persisted themes list.
// If a project config (.themekeeper/config.yaml) exists, it updates that file.
// Otherwise, it updates the user config (~/.themekeeper/config.yaml).
// The user config directory is auto-created if needed, but project config
// directories are never auto-created. Managers constructed afterwards pick up
// the new identifiers; running managers keep the set they were built with.
func SaveAdditionalThemes(names []string) ([]string, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	targetPath, err := findWritableConfigPath()
	if err != nil {
		return nil, fmt.Errorf("find config path: %w", err)
	}

	// Fresh viper instance for this file only, so defaults and env are not written out.
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(targetPath)
	_ = v.ReadInConfig() // ignore error if file doesn't exist

	merged := mergeNames(v.GetStringSlice(KeyThemes), names)
	v.Set(KeyThemes, merged)

	dir := filepath.Dir(targetPath)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(targetPath); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	configMu.Lock()
	if configInst != nil {
		configInst.Set(KeyThemes, mergeNames(configInst.GetStringSlice(KeyThemes), merged))
	}
	configMu.Unlock()
	return merged, nil
}

// findWritableConfigPath returns the project config path if one was found,
// otherwise the user config path.
func findWritableConfigPath() (string, error) {
	configMu.RLock()
	project, user := activeProjectConfig, activeUserConfig
	configMu.RUnlock()

	if project != "" {
		if _, err := os.Stat(project); err == nil {
			return project, nil
		}
	}
	if user != "" {
		return user, nil
	}
	return defaultUserConfigPath()
}

func mergeNames(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
