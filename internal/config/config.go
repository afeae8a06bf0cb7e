package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	DB            struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Workflow struct {
		// PendingReviewDelay is how long a started workflow sits in
		// pending_review before the first auto-transition fires.
		PendingReviewDelay time.Duration `mapstructure:"pending_review_delay"`
		// AutoApproveDelay runs from the moment the record enters in_review.
		AutoApproveDelay time.Duration `mapstructure:"auto_approve_delay"`
	} `mapstructure:"workflow"`
	Audio struct {
		// DownloadFailureRate simulates transient download failures in the
		// mock downloader, 0..1.
		DownloadFailureRate float64 `mapstructure:"download_failure_rate"`
	} `mapstructure:"audio"`
	Azure struct {
		Endpoint string `mapstructure:"endpoint"`
		Key      string `mapstructure:"key"`
		Language string `mapstructure:"language"`
	} `mapstructure:"azure"`
	Auth struct {
		OktaDomain   string `mapstructure:"okta_domain"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURL  string `mapstructure:"redirect_url"`
	} `mapstructure:"auth"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment. An
// explicit path wins over the default search locations.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}
	viper.AutomaticEnv()

	viper.SetDefault("environment", "DEV")
	viper.SetDefault("dev_mode_bypass", true)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("workflow.pending_review_delay", "5s")
	viper.SetDefault("workflow.auto_approve_delay", "10s")
	viper.SetDefault("audio.download_failure_rate", 0.2)
	viper.SetDefault("azure.language", "en-US")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
