// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
		File        string `yaml:"file"`
		MaxSizeMB   int    `yaml:"max_size_mb"`
		MaxBackups  int    `yaml:"max_backups"`
		MaxAgeDays  int    `yaml:"max_age_days"`
		Compress    bool   `yaml:"compress"`
	} `yaml:"log"`
	Model struct {
		Dir            string `yaml:"dir"`
		ScalerPath     string `yaml:"scaler_path"`
		ClassifierPath string `yaml:"classifier_path"`
		PositiveClass  int    `yaml:"positive_class"`
		Watch          bool   `yaml:"watch"`
		CacheSize      int    `yaml:"cache_size"`
	} `yaml:"model"`
	UI struct {
		Title     string `yaml:"title"`
		Language  string `yaml:"language"`
		AboutHTML string `yaml:"about_html"`
		Footer    string `yaml:"footer"`
	} `yaml:"ui"`
}

const defaultAbout = `This AI-powered health predictor uses <b>Machine Learning</b> to estimate your risk of heart disease.<br>
<b>Features used:</b> Age, Sex, Chest Pain, Blood Pressure, Cholesterol, Heart Rate, Exercise-induced Angina, etc.<br>
<b>Purpose:</b> Personal awareness, <b>not a medical diagnosis</b>. Always consult a doctor.`

func Default() *Config {
	var c Config
	c.Http.Port = 8501
	c.Http.Timeout = 30 * time.Second
	c.Http.MaxBodyBytes = 1 << 20
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Model.Dir = "model"
	c.Model.ScalerPath = "scaler.json"
	c.Model.ClassifierPath = "best_heart_model.json"
	c.Model.PositiveClass = 1
	c.Model.CacheSize = 1024
	c.UI.Title = "AI Health Risk Predictor"
	c.UI.Language = "en"
	c.UI.AboutHTML = defaultAbout
	c.UI.Footer = "Powered by Machine Learning"
	return &c
}

// Load decodes path over the defaults. An empty path yields the defaults.
// A relative model directory in the file is taken relative to the file.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if config.Model.Dir != "" && !filepath.IsAbs(config.Model.Dir) {
			config.Model.Dir = filepath.Join(filepath.Dir(path), config.Model.Dir)
		}
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Locate returns path, or the same name one directory up when the binary is
// started from a subdirectory. A missing file is not an error.
func Locate(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	parent := filepath.Join("..", path)
	if _, err := os.Stat(parent); err == nil {
		return parent
	}
	return ""
}

func (c *Config) applyEnv() error {
	if port, ok := os.LookupEnv("HEARTRISK_PORT"); ok {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("HEARTRISK_PORT: %w", err)
		}
		c.Http.Port = p
	}
	if dir, ok := os.LookupEnv("HEARTRISK_MODEL_DIR"); ok {
		c.Model.Dir = dir
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Model.ScalerPath == "" || c.Model.ClassifierPath == "" {
		return errors.New("model.scaler_path and model.classifier_path are required")
	}
	if c.Model.CacheSize < 0 {
		return errors.New("model.cache_size must not be negative")
	}
	return nil
}

// ScalerFile resolves the scaler path against the model directory.
func (c *Config) ScalerFile() string {
	return c.resolve(c.Model.ScalerPath)
}

func (c *Config) ClassifierFile() string {
	return c.resolve(c.Model.ClassifierPath)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Model.Dir == "" {
		return path
	}
	return filepath.Join(c.Model.Dir, path)
}
