package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"debug"`
	// Sink is a file path; empty means stderr.
	Sink       string `yaml:"sink" envconfig:"LOG_SINK"`
	MaxSizeMB  int    `yaml:"maxSizeMB" envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `yaml:"maxBackups" envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var ws zapcore.WriteSyncer
	if cfg.Sink != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Sink,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		ws = zapcore.Lock(os.Stderr)
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Sink != "" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, ws, cfg.LogLevel)
	return zap.New(core, zap.AddCaller()).Named(name)
}
