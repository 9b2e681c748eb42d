// Package config provides XML-based configuration management for the
// document chat service and its client engine.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ChatbotThemeIdentifier"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Retrieval configuration
	Retrieval RetrievalConfig `xml:"Retrieval"`

	// External service endpoints
	Services ServicesConfig `xml:"Services"`

	// Client engine configuration
	Client ClientConfig `xml:"Client"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// RetrievalConfig contains chunking and scoring settings
type RetrievalConfig struct {
	RulesPath    string `xml:"TierRulesPath"`
	ChunkSize    int    `xml:"ChunkSize"`
	ChunkOverlap int    `xml:"ChunkOverlap"`
}

// ServicesConfig points at the external collaborators: the OCR/PDF
// extraction sidecar, the embedding backend, and the answer model.
type ServicesConfig struct {
	ExtractorURL   string `xml:"ExtractorURL"`
	OllamaURL      string `xml:"OllamaURL"`
	EmbeddingModel string `xml:"EmbeddingModel"`
	GeminiModel    string `xml:"GeminiModel"`
	GeminiKeyEnv   string `xml:"GeminiAPIKeyEnv"`
}

// ClientConfig contains settings for the engine half: where it uploads
// to, where the chat channel lives, and an optional directory to watch
// for documents to attach automatically.
type ClientConfig struct {
	UploadEndpoint string `xml:"UploadEndpoint"`
	ChatEndpoint   string `xml:"ChatEndpoint"`
	WatchDirectory string `xml:"WatchDirectory"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "127.0.0.1",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "100M",
		},
		Retrieval: RetrievalConfig{
			RulesPath:    "./data/retrieval_rules.yaml",
			ChunkSize:    800,
			ChunkOverlap: 300,
		},
		Services: ServicesConfig{
			ExtractorURL:   "http://localhost:8081",
			OllamaURL:      "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
			GeminiModel:    "gemini-2.0-flash",
			GeminiKeyEnv:   "GEMINI_API_KEY",
		},
		Client: ClientConfig{
			UploadEndpoint: "http://127.0.0.1:5000/upload",
			ChatEndpoint:   "ws://127.0.0.1:5000/ws/chat",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			WebSocketMaxMessageSize: 65536,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Chatbot Theme Identifier Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if url := os.Getenv("EXTRACTOR_URL"); url != "" {
		c.Services.ExtractorURL = url
	}

	if url := os.Getenv("OLLAMA_URL"); url != "" {
		c.Services.OllamaURL = url
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Retrieval.RulesPath != "" && !filepath.IsAbs(c.Retrieval.RulesPath) {
		c.Retrieval.RulesPath = filepath.Join(configDir, c.Retrieval.RulesPath)
	}
	if c.Client.WatchDirectory != "" && !filepath.IsAbs(c.Client.WatchDirectory) {
		c.Client.WatchDirectory = filepath.Join(configDir, c.Client.WatchDirectory)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GeminiAPIKey reads the answer model key from the configured
// environment variable. Empty when unset.
func (c *AppConfig) GeminiAPIKey() string {
	if c.Services.GeminiKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Services.GeminiKeyEnv)
}
