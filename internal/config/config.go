package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the sync process.
// All values must come from env (or an optional .env file).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Close  CloseConfig
	Twilio TwilioConfig
	Sync   SyncConfig
	Redis  RedisConfig
	Audit  AuditConfig
	Auth   AuthConfig

	// Queues is derived by zipping the three parallel number/group lists.
	// Built during Validate; immutable for the process lifetime.
	Queues []Queue
}

type AppConfig struct {
	Env  string
	Port int

	// BaseURL is the externally reachable URL of this process. It is used
	// to build the redirect-task callback URL handed to the telephony side.
	BaseURL string
}

type CloseConfig struct {
	APIKey  string
	BaseURL string

	// OrganizationID may be left empty; it is resolved from the API key at
	// startup.
	OrganizationID string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	BaseURL    string

	WorkspaceSID string
	WorkflowSID  string

	// FallbackNumber receives calls when a dialed number cannot be resolved
	// and acts as the safety-net dial target after an enqueue.
	FallbackNumber string

	// HoldMusicURL is played to callers waiting in a queue.
	HoldMusicURL string
}

type SyncConfig struct {
	// Interval between periodic full reconciliation passes.
	Interval time.Duration

	// OnCallBlocksQueueEligibility excludes on_call workers from the
	// queue online-check when set. Group-number participation always
	// excludes on_call users regardless of this flag.
	OnCallBlocksQueueEligibility bool
}

type RedisConfig struct {
	// Addr is optional; when empty the webhook dedup store runs in memory.
	Addr string
}

type AuditConfig struct {
	// DSN is optional; when empty the audit trail is kept in memory only.
	DSN string
}

type AuthConfig struct {
	// JWTSecret gates the ops/admin API. When empty the admin routes are
	// not registered (local-friendly); production requires it.
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// Queue is one configured inbound line: a telephony number, the CRM group
// that answers it, and the CRM group-dial number used for bypass/voicemail.
type Queue struct {
	GroupID      string
	TwilioNumber string
	CloseNumber  string
}

func Load() (Config, error) {
	// Optional .env for local runs; ignore absence.
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_URL")), "/")

	c.Close.APIKey = os.Getenv("CLOSE_API_KEY")
	c.Close.BaseURL = defaultString(os.Getenv("CLOSE_API_BASE_URL"), "https://api.close.com/api/v1")
	c.Close.OrganizationID = strings.TrimSpace(os.Getenv("CLOSE_ORGANIZATION_ID"))

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.BaseURL = defaultString(os.Getenv("TWILIO_API_BASE_URL"), "https://taskrouter.twilio.com/v1")
	c.Twilio.WorkspaceSID = strings.TrimSpace(os.Getenv("TWILIO_WORKSPACE_SID"))
	c.Twilio.WorkflowSID = strings.TrimSpace(os.Getenv("TWILIO_WORKFLOW_SID"))
	c.Twilio.FallbackNumber = strings.TrimSpace(os.Getenv("FALLBACK_NUMBER"))
	c.Twilio.HoldMusicURL = strings.TrimSpace(os.Getenv("HOLD_MUSIC_URL"))

	c.Sync.Interval = defaultDuration("SYNC_INTERVAL", time.Minute)
	c.Sync.OnCallBlocksQueueEligibility = boolEnv("ON_CALL_BLOCKS_QUEUE")

	c.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Audit.DSN = os.Getenv("AUDIT_DB_DSN")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = defaultDuration("JWT_ACCESS_TTL", 15*time.Minute)

	twilioNumbers := splitList(os.Getenv("TWILIO_PHONE_NUMBERS"))
	closeNumbers := splitList(os.Getenv("CLOSE_PHONE_NUMBERS"))
	groupIDs := splitList(os.Getenv("CLOSE_GROUP_IDS"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.validate(twilioNumbers, closeNumbers, groupIDs); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate(twilioNumbers, closeNumbers, groupIDs []string) error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}

	if c.Close.APIKey == "" {
		errs = append(errs, errors.New("CLOSE_API_KEY is required"))
	}
	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.WorkspaceSID == "" {
		errs = append(errs, errors.New("TWILIO_WORKSPACE_SID is required"))
	}
	if c.Twilio.WorkflowSID == "" {
		errs = append(errs, errors.New("TWILIO_WORKFLOW_SID is required"))
	}
	if c.Twilio.FallbackNumber == "" {
		errs = append(errs, errors.New("FALLBACK_NUMBER is required"))
	}

	// The three number/group lists are positionally aligned. A silent
	// misalignment becomes a subtle routing failure at run time, so it is
	// rejected here instead.
	qs, err := BuildQueues(twilioNumbers, closeNumbers, groupIDs)
	if err != nil {
		errs = append(errs, err)
	}
	c.Queues = qs

	if c.Sync.Interval < time.Second {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL must be at least 1s, got %s", c.Sync.Interval))
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.Auth.JWTSecret != "" && c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}

	return joinErrors(errs)
}

// BuildQueues zips the three parallel configuration lists into queue
// definitions, rejecting length mismatches and blank entries.
func BuildQueues(twilioNumbers, closeNumbers, groupIDs []string) ([]Queue, error) {
	if len(twilioNumbers) == 0 {
		return nil, errors.New("TWILIO_PHONE_NUMBERS is required")
	}
	if len(twilioNumbers) != len(closeNumbers) || len(twilioNumbers) != len(groupIDs) {
		return nil, fmt.Errorf(
			"number lists must be positionally aligned: %d twilio numbers, %d close numbers, %d group ids",
			len(twilioNumbers), len(closeNumbers), len(groupIDs),
		)
	}

	qs := make([]Queue, 0, len(twilioNumbers))
	for i := range twilioNumbers {
		q := Queue{
			GroupID:      groupIDs[i],
			TwilioNumber: twilioNumbers[i],
			CloseNumber:  closeNumbers[i],
		}
		if q.TwilioNumber == "" || q.CloseNumber == "" || q.GroupID == "" {
			return nil, fmt.Errorf("queue %d has a blank entry", i)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// QueueByTwilioNumber resolves the queue owning a dialed telephony number.
func (c Config) QueueByTwilioNumber(number string) (Queue, bool) {
	for _, q := range c.Queues {
		if q.TwilioNumber == number {
			return q, true
		}
	}
	return Queue{}, false
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func defaultString(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}

func defaultDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
