package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "SCHEMASYNC"
	defaultConfigName = "schema-syncer"
)

var AppFs = afero.NewOsFs()

type Config struct {
	LogLevel        string   `mapstructure:"log_level"`
	LogFormat       string   `mapstructure:"log_format"`
	ConcurrentReads bool     `mapstructure:"concurrent_reads"`
	MigrationTable  string   `mapstructure:"migration_table"`
	Source          DBConfig `mapstructure:"source"`
	Target          DBConfig `mapstructure:"target"`
	Storage         Storage  `mapstructure:"storage"`
	History         History  `mapstructure:"history"`
	HTTP            HTTP     `mapstructure:"http"`
}

// DBConfig describes one MySQL endpoint, either as a full DSN or as its
// individual parts.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type Storage struct {
	Path string `mapstructure:"path"`
}

// History points at the optional Postgres database that keeps run history.
type History struct {
	DSN string `mapstructure:"dsn"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from path (or the default search locations when
// path is empty), .env files and SCHEMASYNC_* environment variables.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", defaultConfigName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("concurrent_reads", false)
	v.SetDefault("migration_table", "schema_sync_status")
	v.SetDefault("storage.path", "./storage")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("source.provider", "mysql")
	v.SetDefault("target.provider", "mysql")
	v.SetDefault("source.port", 3306)
	v.SetDefault("target.port", 3306)
}

// bindEnv registers keys without defaults so AutomaticEnv picks them up
// during Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{"history.dsn"} {
		_ = v.BindEnv(key)
	}
	for _, side := range []string{"source", "target"} {
		for _, field := range []string{"dsn", "host", "user", "password", "database"} {
			_ = v.BindEnv(side + "." + field)
		}
	}
}

func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

func (c Config) Validate() error {
	if err := c.Source.validate("source"); err != nil {
		return err
	}
	if err := c.Target.validate("target"); err != nil {
		return err
	}
	if c.MigrationTable == "" {
		return errors.New("migration_table must not be empty")
	}
	return nil
}

func (d DBConfig) validate(side string) error {
	if p := strings.ToLower(d.Provider); p != "" && p != "mysql" {
		return fmt.Errorf("%s: unsupported provider %s", side, d.Provider)
	}
	if d.DSN == "" && d.Database == "" {
		return fmt.Errorf("%s: dsn or database is required", side)
	}
	return nil
}

// DataSourceName returns the configured DSN, or builds one from the
// individual connection parts.
func (d DBConfig) DataSourceName() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}
	if d.Database == "" {
		return "", errors.New("database name is required")
	}
	host := d.Host
	if host == "" {
		host = "localhost"
	}
	port := d.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = d.Database
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// Label identifies an endpoint in logs and history without leaking
// credentials.
func (d DBConfig) Label() string {
	dsn, err := d.DataSourceName()
	if err != nil {
		return "unknown"
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "unknown"
	}
	return mc.Addr + "/" + mc.DBName
}
