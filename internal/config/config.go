package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Server struct {
	Port string `mapstructure:"port"`
}

type Auth struct {
	Token string `mapstructure:"token"`
}

type Pix struct {
	Key  string `mapstructure:"key"`
	Name string `mapstructure:"name"`
	City string `mapstructure:"city"`
}

type Webhook struct {
	URL       string `mapstructure:"url"`
	TimeoutMs int    `mapstructure:"timeout-ms"`
}

type Store struct {
	File string `mapstructure:"file"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Server  Server  `mapstructure:"server"`
	Auth    Auth    `mapstructure:"auth"`
	Pix     Pix     `mapstructure:"pix"`
	Webhook Webhook `mapstructure:"webhook"`
	Store   Store   `mapstructure:"store"`
	Metrics Metrics `mapstructure:"metrics"`
	Logs    Logs    `mapstructure:"logs"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Env names used by existing deployments of the provider.
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("auth.token", "API_TOKEN")
	viper.BindEnv("webhook.url", "WEBHOOK_URL")
	viper.BindEnv("pix.key", "PIX_KEY")
	viper.BindEnv("pix.name", "PIX_NAME")
	viper.BindEnv("pix.city", "PIX_CITY")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
