package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Values come from the environment first (the daemon normally runs under
// a user session unit), then from an optional file named by CONFIG_FILE.
// The file is the only source that can change at runtime.

type Config struct {
	KioskURL          string        `mapstructure:"KIOSK_URL"`
	EmployeeID        int           `mapstructure:"EMPLOYEE_ID"`
	EmployeePIN       string        `mapstructure:"EMPLOYEE_PIN"`
	UpdateFrequency   int           `mapstructure:"UPDATE_FREQUENCY"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	ToggleMinInterval time.Duration `mapstructure:"TOGGLE_MIN_INTERVAL"`
	ServerHost        string        `mapstructure:"SERVER_HOST"`
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	IsLocalDev        bool          `mapstructure:"IS_LOCAL_DEV"`
	TraceExporter     string        `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint      string        `mapstructure:"OTLP_ENDPOINT"`
	AWSRegion         string        `mapstructure:"AWS_REGION"`
	AWSEndpoint       string        `mapstructure:"AWS_ENDPOINT"`
	NotifyQueueURL    string        `mapstructure:"NOTIFY_SQS_QUEUE_URL"`
	SummaryEmailFrom  string        `mapstructure:"SUMMARY_EMAIL_FROM"`
	SummaryEmailTo    string        `mapstructure:"SUMMARY_EMAIL_TO"`
	HistoryEnabled    bool          `mapstructure:"HISTORY_ENABLED"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	ConfigFile        string        `mapstructure:"CONFIG_FILE"`
}

// Settings is the part of the configuration the attendance core reacts to.
type Settings struct {
	KioskURL     string
	EmployeeID   int
	PIN          string
	PollInterval time.Duration
}

// Settings projects the core settings. A non-positive UPDATE_FREQUENCY
// disables polling.
func (c Config) Settings() Settings {
	interval := time.Duration(c.UpdateFrequency) * time.Second
	if interval < 0 {
		interval = 0
	}
	return Settings{
		KioskURL:     c.KioskURL,
		EmployeeID:   c.EmployeeID,
		PIN:          c.EmployeePIN,
		PollInterval: interval,
	}
}

// LoadConfig reads configuration from environment variables and, when
// CONFIG_FILE is set, from that file.
func LoadConfig() (Config, error) {
	return Load(viper.GetViper(), "")
}

// Load reads configuration through v. A non-empty file overrides
// CONFIG_FILE.
func Load(v *viper.Viper, file string) (config Config, err error) {
	setDefaults(v)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("CONFIG_FILE")
	}
	if file != "" {
		v.SetConfigFile(file)
		v.Set("CONFIG_FILE", file)
		if err = v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("KIOSK_URL", "")
	v.SetDefault("EMPLOYEE_ID", 0)
	v.SetDefault("EMPLOYEE_PIN", "")
	v.SetDefault("UPDATE_FREQUENCY", 60)
	v.SetDefault("HTTP_TIMEOUT", 15*time.Second)
	v.SetDefault("TOGGLE_MIN_INTERVAL", 2*time.Second)
	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_PORT", "8090")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("TRACE_EXPORTER", "none")
	v.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("NOTIFY_SQS_QUEUE_URL", "")
	v.SetDefault("SUMMARY_EMAIL_FROM", "")
	v.SetDefault("SUMMARY_EMAIL_TO", "")
	v.SetDefault("HISTORY_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "presence")
	v.SetDefault("DB_PASSWORD", "presence")
	v.SetDefault("DB_NAME", "presence")
	v.SetDefault("CONFIG_FILE", "")
}
