package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.Normalize()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.Normalize()
	return c
}

type CoreConfig struct {
	Addr     string         `toml:"addr"`
	Log      Log            `toml:"log"`
	Postgres PGConfig       `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Security Security       `toml:"security"`
	Workflow WorkflowConfig `toml:"workflow"`
	Chat     ChatConfig     `toml:"chat"`
	Limit    LimitSetting   `toml:"limit"`
}

const (
	DEFAULT_ADDR                  = ":33033"
	DEFAULT_WORKFLOW_TIMEOUT_MS   = 60000
	DEFAULT_MAX_MESSAGE_LENGTH    = 5000
	DEFAULT_RECENT_MESSAGES_LIMIT = 20
	DEFAULT_ACTIVITIES_LIMIT      = 5
	DEFAULT_TITLE_LENGTH          = 50
	DEFAULT_CHAT_PER_MINUTE       = 30
	DEFAULT_OWNERSHIP_TTL_SECONDS = 24 * 60 * 60
	DEFAULT_REDIS_KEY_PREFIX      = "mindwell:"
)

const DEFAULT_OPENAI_MAX_CONTEXT_TOKENS = 16000

// Normalize 填充未配置项的默认值
func (c *CoreConfig) Normalize() {
	if c.Addr == "" {
		c.Addr = DEFAULT_ADDR
	}
	if c.Workflow.Driver == "" {
		c.Workflow.Driver = WORKFLOW_DRIVER_HTTP
	}
	if c.Workflow.TimeoutMS <= 0 {
		c.Workflow.TimeoutMS = DEFAULT_WORKFLOW_TIMEOUT_MS
	}
	if c.Workflow.OpenAI.MaxContextTokens <= 0 {
		c.Workflow.OpenAI.MaxContextTokens = DEFAULT_OPENAI_MAX_CONTEXT_TOKENS
	}
	if c.Chat.MaxMessageLength <= 0 {
		c.Chat.MaxMessageLength = DEFAULT_MAX_MESSAGE_LENGTH
	}
	if c.Chat.RecentMessagesLimit <= 0 {
		c.Chat.RecentMessagesLimit = DEFAULT_RECENT_MESSAGES_LIMIT
	}
	if c.Chat.ActivitiesLimit <= 0 {
		c.Chat.ActivitiesLimit = DEFAULT_ACTIVITIES_LIMIT
	}
	if c.Chat.TitleLength <= 0 {
		c.Chat.TitleLength = DEFAULT_TITLE_LENGTH
	}
	if c.Limit.ChatPerMinute <= 0 {
		c.Limit.ChatPerMinute = DEFAULT_CHAT_PER_MINUTE
	}
	if c.Redis.OwnershipTTLSeconds <= 0 {
		c.Redis.OwnershipTTLSeconds = DEFAULT_OWNERSHIP_TTL_SECONDS
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DEFAULT_REDIS_KEY_PREFIX
	}
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("MINDWELL_API_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.Security.FromENV()
	c.Workflow.FromENV()
	c.Chat.FromENV()
	c.Limit.FromENV()
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

type PGConfig struct {
	DSN         string `toml:"dsn"`
	AutoMigrate bool   `toml:"auto_migrate"`
	MaxOpen     int    `toml:"max_open_conns"`
	MaxIdle     int    `toml:"max_idle_conns"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("MINDWELL_POSTGRESQL_DSN")
	m.AutoMigrate = envBool("MINDWELL_POSTGRESQL_AUTO_MIGRATE")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

func (c PGConfig) MaxOpenConns() int {
	if c.MaxOpen <= 0 {
		return 20
	}
	return c.MaxOpen
}

func (c PGConfig) MaxIdleConns() int {
	if c.MaxIdle <= 0 {
		return 5
	}
	return c.MaxIdle
}

func (c PGConfig) ConnMaxLifetime() time.Duration {
	return time.Hour
}

type RedisConfig struct {
	Addr     string `toml:"addr"`     // Redis地址，格式: host:port，为空时不启用
	Password string `toml:"password"` // Redis密码
	DB       int    `toml:"db"`       // Redis数据库索引 (0-15)

	PoolSize    int `toml:"pool_size"`    // 连接池大小，默认10
	DialTimeout int `toml:"dial_timeout"` // 连接超时(秒)，默认5

	KeyPrefix           string `toml:"key_prefix"` // Redis键前缀，用于隔离不同环境/应用
	OwnershipTTLSeconds int    `toml:"ownership_ttl_seconds"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("MINDWELL_REDIS_ADDR")
	r.Password = os.Getenv("MINDWELL_REDIS_PASSWORD")
	r.DB = envInt("MINDWELL_REDIS_DB")
	r.KeyPrefix = os.Getenv("MINDWELL_REDIS_KEY_PREFIX")
	r.OwnershipTTLSeconds = envInt("MINDWELL_REDIS_OWNERSHIP_TTL_SECONDS")
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func (r RedisConfig) OwnershipTTL() time.Duration {
	return time.Duration(r.OwnershipTTLSeconds) * time.Second
}

type Security struct {
	JWTSecret   string `toml:"jwt_secret"`
	JWTIssuer   string `toml:"jwt_issuer"`
	JWTAudience string `toml:"jwt_audience"`
}

func (s *Security) FromENV() {
	s.JWTSecret = os.Getenv("MINDWELL_JWT_SECRET")
	s.JWTIssuer = os.Getenv("MINDWELL_JWT_ISSUER")
	s.JWTAudience = os.Getenv("MINDWELL_JWT_AUDIENCE")
}

const (
	WORKFLOW_DRIVER_HTTP   = "http"
	WORKFLOW_DRIVER_OPENAI = "openai"
)

type WorkflowConfig struct {
	Driver        string         `toml:"driver"`
	EndpointURL   string         `toml:"endpoint_url"`
	TimeoutMS     int            `toml:"timeout_ms"`
	APICredential string         `toml:"api_credential"`
	OpenAI        OpenAIWorkflow `toml:"openai"`
}

type OpenAIWorkflow struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Lang    string `toml:"lang"`
	// 请求的 token 上限，超出时从最早的历史消息开始丢弃
	MaxContextTokens int `toml:"max_context_tokens"`
}

func (w *WorkflowConfig) FromENV() {
	w.Driver = os.Getenv("MINDWELL_WORKFLOW_DRIVER")
	w.EndpointURL = os.Getenv("MINDWELL_WORKFLOW_URL")
	w.TimeoutMS = envInt("MINDWELL_WORKFLOW_TIMEOUT_MS")
	w.APICredential = os.Getenv("MINDWELL_WORKFLOW_API_CREDENTIAL")
	w.OpenAI.Token = os.Getenv("MINDWELL_OPENAI_TOKEN")
	w.OpenAI.BaseURL = os.Getenv("MINDWELL_OPENAI_BASE_URL")
	w.OpenAI.Model = os.Getenv("MINDWELL_OPENAI_MODEL")
	w.OpenAI.Lang = os.Getenv("MINDWELL_OPENAI_LANG")
	w.OpenAI.MaxContextTokens = envInt("MINDWELL_OPENAI_MAX_CONTEXT_TOKENS")
}

func (w WorkflowConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutMS) * time.Millisecond
}

type ChatConfig struct {
	MaxMessageLength    int `toml:"max_message_length"`
	RecentMessagesLimit int `toml:"recent_messages_limit"`
	ActivitiesLimit     int `toml:"activities_limit"`
	TitleLength         int `toml:"title_length"`
}

func (c *ChatConfig) FromENV() {
	c.MaxMessageLength = envInt("MINDWELL_CHAT_MAX_MESSAGE_LENGTH")
	c.RecentMessagesLimit = envInt("MINDWELL_CHAT_RECENT_MESSAGES_LIMIT")
	c.ActivitiesLimit = envInt("MINDWELL_CHAT_ACTIVITIES_LIMIT")
	c.TitleLength = envInt("MINDWELL_CHAT_TITLE_LENGTH")
}

type LimitSetting struct {
	ChatPerMinute int `toml:"chat_per_minute"`
}

func (l *LimitSetting) FromENV() {
	l.ChatPerMinute = envInt("MINDWELL_LIMIT_CHAT_PER_MINUTE")
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("MINDWELL_API_LOG_LEVEL")
	l.Path = os.Getenv("MINDWELL_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
