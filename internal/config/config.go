package config

import "github.com/spf13/viper"

// Config holds the application settings, read from a config file or
// environment variables.
type Config struct {
	DBSource      string `mapstructure:"DB_SOURCE"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	MailFrom      string `mapstructure:"MAIL_FROM"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
}

// LoadConfig reads configuration from app.env in path, with environment
// variables taking precedence.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	viper.SetDefault("MAIL_FROM", "noreply@example.com")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
