package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	Port                = "PORT"
	WSPort              = "WS_PORT"
	AllowedOrigins      = "ALLOWED_ORIGINS"
	AWSRegion           = "AWS_REGION"
	AWSID               = "AWS_ID"
	AWSSecret           = "AWS_SECRET"
	AWSToken            = "AWS_TOKEN"
	DynamoDBEndpoint    = "DYNAMODB_ENDPOINT"
	UserSecretKey       = "USER_SECRET"
	AccessTokenTTL      = "ACCESS_TOKEN_TTL"
	AuthRedisURL        = "AUTH_REDIS_URL"
	AuthRedisPass       = "AUTH_REDIS_PASS"
	ChatRedisURL        = "CHAT_REDIS_URL"
	ChatRedisPass       = "CHAT_REDIS_PASS"
	NotifyChannel       = "NOTIFY_CHANNEL"
	SMTPHost            = "SMTP_HOST"
	SMTPPort            = "SMTP_PORT"
	SMTPUser            = "SMTP_USER"
	SMTPPassword        = "SMTP_PASSWORD"
	SenderEmail         = "SENDER_EMAIL"
	S3Bucket            = "S3_BUCKET"
	S3PublicURL         = "S3_PUBLIC_URL"
	CallEndOnDisconnect = "CALL_END_ON_DISCONNECT"
	LogLevel            = "LOG_LEVEL"
	LogPretty           = "LOG_PRETTY"
	QueueSize           = "QUEUE_SIZE"
	QueueWorkers        = "QUEUE_WORKERS"
	WSReadLimit         = "WS_READ_LIMIT"
	WSSendBuffer        = "WS_SEND_BUFFER"
)

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

// Require panics on the first key that is unset. Binaries call it before
// loading configuration so a misconfigured deploy fails at boot.
func Require(keys ...string) {
	for _, key := range keys {
		MustGet(key)
	}
}

func GetInt(key string, defaultVal int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func GetBool(key string, defaultVal bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func GetDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// GetList splits a comma separated value, dropping empty entries.
func GetList(key string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
