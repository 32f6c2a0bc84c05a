package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/bookly/booklibrary-service/pkg/kafka"
	"github.com/bookly/booklibrary-service/pkg/logger"
	"github.com/bookly/booklibrary-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type SMTP struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST"`
	Port     string `yaml:"port" envconfig:"SMTP_PORT" default:"587"`
	From     string `yaml:"from" envconfig:"SMTP_FROM" default:"noreply@booklibrary.io"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD" json:"-"`
}

type Scanner struct {
	Interval          time.Duration `yaml:"interval" envconfig:"SCANNER_INTERVAL" default:"1h"`
	ReconcileInterval time.Duration `yaml:"reconcileInterval" envconfig:"RECONCILE_INTERVAL" default:"6h"`
}

type Config struct {
	Server   HTTPServer      `yaml:"server"`
	Database postgres.Config `yaml:"database"`
	Kafka    kafka.Config    `yaml:"kafka"`
	SMTP     SMTP            `yaml:"smtp"`
	Scanner  Scanner         `yaml:"scanner"`
	Log      logger.Log      `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from an optional yaml file (CONFIG_PATH),
// then overrides from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		config := new(Config)
		if path := os.Getenv("CONFIG_PATH"); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				log.Fatal("NewConfig read ", err)
			}
			if err := yaml.Unmarshal(raw, config); err != nil {
				log.Fatal("NewConfig yaml ", err)
			}
		}
		for _, op := range ops {
			op(config)
		}
		if err := envconfig.Process("", config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
