package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meysamhadeli/buildscope/constants/lipgloss"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string `mapstructure:"version"`
	Theme            string `mapstructure:"theme"`
	Tool             string `mapstructure:"tool"`
	Profile          string `mapstructure:"profile"`
	Standard         string `mapstructure:"standard"`
	IntelliSenseMode string `mapstructure:"intellisense_mode"`
	EnableCache      bool   `mapstructure:"enable_cache"`
	CompileDBName    string `mapstructure:"compile_db_name"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:          "1.0.0",
	Theme:            "dracula",
	Tool:             "catkin",
	Profile:          "",
	Standard:         "c++17",
	IntelliSenseMode: "linux-gcc-x64",
	EnableCache:      true,
	CompileDBName:    "compile_commands.json",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("buildscope-config") // Name of config file (without extension)
		viper.AddConfigPath(cwd)                 // Look in the current working directory

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml") // Set default type
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, we'll continue with defaults
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Read the explicitly specified config file (if any)
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("tool", DefaultConfig.Tool)
	viper.SetDefault("profile", DefaultConfig.Profile)
	viper.SetDefault("standard", DefaultConfig.Standard)
	viper.SetDefault("intellisense_mode", DefaultConfig.IntelliSenseMode)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("compile_db_name", DefaultConfig.CompileDBName)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("tool", "BUILD_TOOL")
	_ = viper.BindEnv("profile", "BUILD_PROFILE")
	_ = viper.BindEnv("standard", "CPP_STANDARD")
	_ = viper.BindEnv("intellisense_mode", "INTELLISENSE_MODE")
	_ = viper.BindEnv("enable_cache", "ENABLE_CACHE")
	_ = viper.BindEnv("compile_db_name", "COMPILE_DB_NAME")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("tool", rootCmd.PersistentFlags().Lookup("tool"))
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("standard", rootCmd.PersistentFlags().Lookup("standard"))
	_ = viper.BindPFlag("intellisense_mode", rootCmd.PersistentFlags().Lookup("intellisense_mode"))
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("compile_db_name", rootCmd.PersistentFlags().Lookup("compile_db_name"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for highlighted output. (e.g., 'dracula', 'light', 'dark')")
	rootCmd.PersistentFlags().String("tool", DefaultConfig.Tool, "The workspace build tool whose CLI answers directory queries (e.g., 'catkin').")
	rootCmd.PersistentFlags().String("profile", DefaultConfig.Profile, "The build profile to query directories for; empty selects the tool's active profile.")
	rootCmd.PersistentFlags().String("standard", DefaultConfig.Standard, "The C++ standard reported in source file configurations (e.g., 'c++17').")
	rootCmd.PersistentFlags().String("intellisense_mode", DefaultConfig.IntelliSenseMode, "The IntelliSense mode reported in source file configurations (e.g., 'linux-gcc-x64').")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable on-disk caching of resolved compiler defaults")
	rootCmd.PersistentFlags().String("compile_db_name", DefaultConfig.CompileDBName, "The compile database file name to watch for under the build directory.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	var configFilePath string

	// Determine config file path
	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		// Check for default config files
		yamlPath := fmt.Sprintf("%s/buildscope-config.yaml", cwd)
		ymlPath := fmt.Sprintf("%s/buildscope-config.yml", cwd)
		jsonPath := fmt.Sprintf("%s/buildscope-config.json", cwd)

		if _, err := os.Stat(yamlPath); err == nil {
			configFilePath = yamlPath
		} else if _, err := os.Stat(ymlPath); err == nil {
			configFilePath = ymlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			configFilePath = jsonPath
		}
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		// File doesn't exist or error, fallback to regular loading
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		// Check if file has been modified since cache
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config
		}
	}
	cacheMutex.RUnlock()

	// Load configuration normally
	config := LoadConfigs(rootCmd, cwd)

	// Update cache
	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// InvalidateConfigCache removes a specific config file from cache
func InvalidateConfigCache(configPath string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	delete(configCache, configPath)
}
