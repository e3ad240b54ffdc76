package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type ApiConfig struct {
	BaseURL        string `mapstructure:"baseUrl"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	RetryCount     int    `mapstructure:"retryCount"`
	RetryDelayMs   int    `mapstructure:"retryDelayMs"`
}

type RealtimeConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Api      ApiConfig      `mapstructure:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

var vp *viper.Viper

func LoadConfig() (Config, error) {
	vp = viper.New()

	var config Config

	vp.SetConfigName("config")
	vp.SetConfigType("json")
	vp.AddConfigPath("config")

	vp.SetDefault("api.timeoutSeconds", 10)
	vp.SetDefault("api.retryCount", 3)
	vp.SetDefault("api.retryDelayMs", 1000)
	vp.SetDefault("realtime.subject", "client.events")

	err := vp.ReadInConfig()
	if err != nil {
		return Config{}, err
	}

	err = vp.Unmarshal(&config)
	if err != nil {
		return Config{}, err
	}

	return config, nil
}
