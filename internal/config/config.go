// Package config turns environment variables into a typed, sanitized runtime
// configuration shared by every binary.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"quickchat-backend/internal/env"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

// Enabled reports whether enough settings are present to dial a relay.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Sender != ""
}

type AWSConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	DynamoDBEndpoint string
}

type Config struct {
	Addr           string
	WSAddr         string
	AllowedOrigins []string

	UserSecret     string
	AccessTokenTTL time.Duration

	AuthRedisURL  string
	AuthRedisPass string
	ChatRedisURL  string
	ChatRedisPass string
	NotifyChannel string

	AWS         AWSConfig
	SMTP        SMTPConfig
	S3Bucket    string
	S3PublicURL string

	CallEndOnDisconnect bool

	LogLevel  string
	LogPretty bool

	QueueSize    int
	QueueWorkers int

	WSReadLimit  int64
	WSSendBuffer int
}

const (
	defaultPort           = "5000"
	defaultWSPort         = "5001"
	defaultAccessTokenTTL = 15 * time.Minute
	defaultNotifyChannel  = "quickchat:notifications"
	defaultQueueSize      = 100
	defaultQueueWorkers   = 10
	defaultWSReadLimit    = 512 * 1024
	defaultWSSendBuffer   = 32
	defaultSMTPPort       = 587
)

func Default() Config {
	return Config{
		Addr:           ":" + defaultPort,
		WSAddr:         ":" + defaultWSPort,
		AllowedOrigins: []string{"http://localhost:5173"},
		AccessTokenTTL: defaultAccessTokenTTL,
		NotifyChannel:  defaultNotifyChannel,
		SMTP:           SMTPConfig{Port: defaultSMTPPort},
		LogLevel:       "info",
		QueueSize:      defaultQueueSize,
		QueueWorkers:   defaultQueueWorkers,
		WSReadLimit:    defaultWSReadLimit,
		WSSendBuffer:   defaultWSSendBuffer,
	}
}

// Load reads the process environment on top of Default and validates the
// result.
func Load() (Config, error) {
	cfg := Default()

	cfg.Addr = listenAddr(env.GetOrDefault(env.Port, defaultPort))
	cfg.WSAddr = listenAddr(env.GetOrDefault(env.WSPort, defaultWSPort))
	if origins := env.GetList(env.AllowedOrigins); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	cfg.UserSecret = env.Get(env.UserSecretKey)
	cfg.AccessTokenTTL = env.GetDuration(env.AccessTokenTTL, defaultAccessTokenTTL)

	cfg.AuthRedisURL = env.Get(env.AuthRedisURL)
	cfg.AuthRedisPass = env.Get(env.AuthRedisPass)
	cfg.ChatRedisURL = env.Get(env.ChatRedisURL)
	cfg.ChatRedisPass = env.Get(env.ChatRedisPass)
	cfg.NotifyChannel = env.GetOrDefault(env.NotifyChannel, defaultNotifyChannel)

	cfg.AWS = LoadAWS()

	cfg.SMTP = SMTPConfig{
		Host:     env.Get(env.SMTPHost),
		Port:     env.GetInt(env.SMTPPort, defaultSMTPPort),
		User:     env.Get(env.SMTPUser),
		Password: env.Get(env.SMTPPassword),
		Sender:   env.Get(env.SenderEmail),
	}
	cfg.S3Bucket = env.Get(env.S3Bucket)
	cfg.S3PublicURL = env.Get(env.S3PublicURL)

	cfg.CallEndOnDisconnect = env.GetBool(env.CallEndOnDisconnect, false)

	cfg.LogLevel = env.GetOrDefault(env.LogLevel, "info")
	cfg.LogPretty = env.GetBool(env.LogPretty, false)

	cfg.QueueSize = env.GetInt(env.QueueSize, defaultQueueSize)
	cfg.QueueWorkers = env.GetInt(env.QueueWorkers, defaultQueueWorkers)
	cfg.WSReadLimit = int64(env.GetInt(env.WSReadLimit, defaultWSReadLimit))
	cfg.WSSendBuffer = env.GetInt(env.WSSendBuffer, defaultWSSendBuffer)

	cfg = sanitize(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadAWS reads only the AWS settings. Tools that never sign tokens use it
// instead of Load.
func LoadAWS() AWSConfig {
	return AWSConfig{
		Region:           env.Get(env.AWSRegion),
		AccessKeyID:      env.Get(env.AWSID),
		SecretAccessKey:  env.Get(env.AWSSecret),
		SessionToken:     env.Get(env.AWSToken),
		DynamoDBEndpoint: env.Get(env.DynamoDBEndpoint),
	}
}

func sanitize(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.QueueWorkers <= 0 {
		cfg.QueueWorkers = defaultQueueWorkers
	}
	if cfg.WSReadLimit <= 0 {
		cfg.WSReadLimit = defaultWSReadLimit
	}
	if cfg.WSSendBuffer <= 0 {
		cfg.WSSendBuffer = defaultWSSendBuffer
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.S3PublicURL = strings.TrimRight(cfg.S3PublicURL, "/")
	return cfg
}

func (c Config) Validate() error {
	if c.UserSecret == "" {
		return fmt.Errorf("config: %s is required", env.UserSecretKey)
	}
	if c.SMTP.Host != "" && c.SMTP.Sender == "" {
		return fmt.Errorf("config: %s is required when %s is set", env.SenderEmail, env.SMTPHost)
	}
	return nil
}

func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// normalizeOrigins lowercases scheme and host and drops entries that are not
// absolute URLs. "*" is kept as is.
func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			out = append(out, origin)
			continue
		}
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			continue
		}
		out = append(out, strings.ToLower(parsed.Scheme)+"://"+strings.ToLower(parsed.Host))
	}
	return out
}
