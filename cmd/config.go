package main

import "time"

type Config struct {
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	AuthTokenDuration         time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JoinTimeout               time.Duration `env:"JOIN_TIMEOUT,default=10s"`
	WriteWait                 time.Duration `env:"WRITE_WAIT,default=10s"`
	PongWait                  time.Duration `env:"PONG_WAIT,default=60s"`
	KeepaliveInterval         time.Duration `env:"KEEPALIVE_INTERVAL,default=30s"`
	TelemetryInterval         time.Duration `env:"TELEMETRY_INTERVAL,default=1m"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,default=INFO"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
