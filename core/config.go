package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings.
// It is built once at startup by NewConfig and passed down explicitly.
type Config struct {
	Env             string
	Build           string
	AppName         string
	Debug           bool
	TestMode        bool
	WorkDir         string
	SecretKey       string
	FrontendBaseURL string
	RollbarToken    string

	Server     ServerConfig
	Database   DatabaseConfig
	Email      EmailConfig
	Scoring    ScoringConfig
	Analytics  AnalyticsConfig
	Attendance AttendanceConfig
}

type ServerConfig struct {
	Host               string
	Address            string
	DebugHost          string
	ShutdownTimeout    time.Duration
	JWTExpirationDelta time.Duration
	DisableReqLogs     bool
}

type DatabaseConfig struct {
	Engine        string // postgres | sqlite3
	Host          string
	Port          int
	Name          string // database name, or file path for sqlite3
	User          string
	Password      string
	AdminUser     string
	AdminPassword string
	DisableTLS    bool
}

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type EmailConfig struct {
	DefaultFromName    string
	DefaultFromAddress string
	SendgridAPIKey     string
}

type ScoringConfig struct {
	ScalesFile string // optional YAML file with extra rating scales
}

type AnalyticsConfig struct {
	ExcellingThreshold   float64
	StrugglingThreshold  float64
	StrengthThreshold    float64
	ImprovementThreshold float64
	TrendThreshold       float64
	TopSections          int
}

type AttendanceConfig struct {
	MaxDailyHours float64
}

// DefaultFromEmail returns the sender address used for outgoing mails.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Email.DefaultFromName, Address: c.Email.DefaultFromAddress}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "OJT Portal")
	v.SetDefault("secretKey", "4c9e-ojt)lk2$+57=qz&u9xh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ojt")
	v.SetDefault("database.user", "ojt")
	v.SetDefault("database.password", "ojt")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("email.defaultFromName", "OJT Portal")
	v.SetDefault("email.defaultFromAddress", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("scoring.scalesFile", "")

	v.SetDefault("analytics.excellingThreshold", 4.5)
	v.SetDefault("analytics.strugglingThreshold", 3.5)
	v.SetDefault("analytics.strengthThreshold", 3.5)
	v.SetDefault("analytics.improvementThreshold", 4.0)
	v.SetDefault("analytics.trendThreshold", 0.15)
	v.SetDefault("analytics.topSections", 3)

	v.SetDefault("attendance.maxDailyHours", 12.0)
}

// NewConfig loads the configuration from defaults, `config/.env.<env>`, an optional
// `config/ojt.yaml` file and environment variables prefixed with the env name (eg. DEV_DATABASE_HOST).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	wd := os.Getenv("WORK_DIR")
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			log.Fatalf("config.os.Getwd(): %v", err)
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetConfigFile(filepath.Join(wd, "config", "ojt.yaml"))
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && fileExists(v.ConfigFileUsed()) {
			log.Fatalf("config.ReadInConfig(%s): %v", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := fromViper(v)
	conf.Env = env
	conf.WorkDir = wd
	return conf
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Email: EmailConfig{
			DefaultFromName:    v.GetString("email.defaultFromName"),
			DefaultFromAddress: v.GetString("email.defaultFromAddress"),
			SendgridAPIKey:     v.GetString("email.sendgridApiKey"),
		},
		Scoring: ScoringConfig{
			ScalesFile: v.GetString("scoring.scalesFile"),
		},
		Analytics: AnalyticsConfig{
			ExcellingThreshold:   v.GetFloat64("analytics.excellingThreshold"),
			StrugglingThreshold:  v.GetFloat64("analytics.strugglingThreshold"),
			StrengthThreshold:    v.GetFloat64("analytics.strengthThreshold"),
			ImprovementThreshold: v.GetFloat64("analytics.improvementThreshold"),
			TrendThreshold:       v.GetFloat64("analytics.trendThreshold"),
			TopSections:          v.GetInt("analytics.topSections"),
		},
		Attendance: AttendanceConfig{
			MaxDailyHours: v.GetFloat64("attendance.maxDailyHours"),
		},
	}
}

// NewTestConfig returns the default configuration in test mode, without reading files or env.
func NewTestConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("secretKey", "secret")
	v.Set("database.engine", "sqlite3")
	v.Set("database.name", ":memory:")
	conf := fromViper(v)
	conf.Env = "TEST"
	return conf
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] env=%s db=%s", c.AppName, c.Build, c.Env, c.Database.Engine)
}
