package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"` // debug | info | warn | error
	} `yaml:"log"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis | file
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		File struct {
			DataDir string `yaml:"data_dir"`
		} `yaml:"file"`
	} `yaml:"cache"`

	Garmin struct {
		// garmin | local_json. Con local_json los requests se sirven solo
		// desde los snapshots locales, sin tocar el vendor.
		DataSource string `yaml:"data_source"`
		IsCN       bool   `yaml:"is_cn"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"garmin"`

	Fetch struct {
		// Consultas concurrentes al vendor por request. 1 = secuencial.
		Parallelism int `yaml:"parallelism"`
	} `yaml:"fetch"`

	MFA struct {
		// Ventana de validez del client_state entre login y resume_login.
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"mfa"`

	Auth struct {
		// Si está seteado, los endpoints /data/* exigen un bearer HS256
		// firmado con este secreto.
		ServiceTokenSecret string `yaml:"service_token_secret"`
	} `yaml:"auth"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}

	// Normalizar data_dir relativo respecto al directorio del YAML
	if p := strings.TrimSpace(c.Cache.File.DataDir); p != "" && !filepath.IsAbs(p) {
		c.Cache.File.DataDir = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}
	return c, nil
}

// LoadDefault arma una configuración usable sin YAML (solo defaults + env).
func LoadDefault() (*Config, error) {
	return parse(nil)
}

func parse(b []byte) (*Config, error) {
	var c Config
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "30s"
	}
	if c.Server.WriteTimeout == "" {
		// los requests de rango largo contra el vendor son lentos
		c.Server.WriteTimeout = "5m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "file"
	}
	if c.Cache.File.DataDir == "" {
		c.Cache.File.DataDir = "mock_data"
	}
	if c.Garmin.DataSource == "" {
		c.Garmin.DataSource = "garmin"
	}
	if c.Garmin.Timeout == "" {
		c.Garmin.Timeout = "60s"
	}
	if c.Fetch.Parallelism < 1 {
		c.Fetch.Parallelism = 1
	}
	if c.MFA.TTL == 0 {
		c.MFA.TTL = 5 * time.Minute
	}

	// Overrides por env
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvStr("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_FILE_DATA_DIR"); ok {
		c.Cache.File.DataDir = v
	}

	// GARMIN
	if v, ok := getEnvStr("DATA_SOURCE"); ok {
		c.Garmin.DataSource = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvBool("GARMIN_IS_CN"); ok {
		c.Garmin.IsCN = v
	}
	if v, ok := getEnvStr("GARMIN_TIMEOUT"); ok {
		c.Garmin.Timeout = v
	}

	// FETCH
	if v, ok := getEnvInt("FETCH_PARALLELISM"); ok && v >= 1 {
		c.Fetch.Parallelism = v
	}

	// MFA
	if v, ok := getEnvDur("MFA_TTL"); ok {
		c.MFA.TTL = v
	}

	// AUTH
	if v, ok := getEnvStr("SERVICE_TOKEN_SECRET"); ok {
		c.Auth.ServiceTokenSecret = v
	}
}

// Validate chequea los valores críticos de configuración.
func (c *Config) Validate() error {
	switch c.Cache.Kind {
	case "memory", "redis", "file":
	default:
		return fmt.Errorf("config: cache.kind inválido: %q", c.Cache.Kind)
	}
	switch c.Garmin.DataSource {
	case "garmin", "local_json":
	default:
		return fmt.Errorf("config: garmin.data_source inválido: %q", c.Garmin.DataSource)
	}
	for _, d := range []string{c.Server.ReadTimeout, c.Server.WriteTimeout, c.Garmin.Timeout} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("config: duración inválida %q: %w", d, err)
		}
	}
	return nil
}

// Duration parsea una duración ya validada; el fallback cubre el caso de
// structs construidos a mano en tests.
func Duration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
