package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type ReservationConfig struct {
	Env           string `yaml:"env"`
	HTTPServer    `yaml:"http_server"`
	ReservationDB `yaml:"reservation_db"`
	LogConfig     `yaml:"log_config"`
	KafkaService  `yaml:"kafka-service"`
	Sweeper       `yaml:"sweeper"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type ReservationDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"reservation-events"`
}

type Sweeper struct {
	IntervalSeconds int `yaml:"interval_seconds" env-default:"5"`
	BatchSize       int `yaml:"batch_size" env-default:"100"`
}

func MustLoad() *ReservationConfig {

	configPath := os.Getenv("RESERVATION_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RESERVATION_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	var cfg ReservationConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
