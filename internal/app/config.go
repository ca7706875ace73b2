package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/handler"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr            string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	CatalogFile     string        `default:"" usage:"Product catalog JSON file (.json or .json.gz); embedded mock data when empty" flag:"catalog-file"`
	ImageBaseURL    string        `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	NotificationTTL time.Duration `default:"3s" usage:"How long a notification stays visible" flag:"notification-ttl"`
	Admin           AdminConfig
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
	Contact         ContactConfig
}

// AdminConfig controls admin login. With an empty PasswordHash any
// credentials are accepted.
type AdminConfig struct {
	PasswordHash string `default:"" usage:"Hex HMAC-SHA256 of the admin password" flag:"admin-password-hash"`
	Pepper       string `default:"" usage:"HMAC key used for the admin password hash" flag:"admin-pepper"`
}

// RateLimitConfig throttles admin login attempts per client IP. Max 0
// disables the limit.
type RateLimitConfig struct {
	Max        int           `default:"10" usage:"Max login attempts per window"`
	Window     time.Duration `default:"1m" usage:"Login rate limit window duration"`
	TrustProxy bool          `default:"false" usage:"Key clients by X-Forwarded-For / X-Real-IP" flag:"ratelimit-trust-proxy"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ContactConfig lists the outbound contact links. Empty entries are hidden.
type ContactConfig struct {
	Email     string `default:"" usage:"Contact e-mail address" flag:"contact-email"`
	WhatsApp  string `default:"" usage:"WhatsApp chat URL" flag:"contact-whatsapp"`
	Instagram string `default:"" usage:"Instagram profile URL" flag:"contact-instagram"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the platform-provided PORT variable onto the
// default listen address.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.NotificationTTL <= 0 {
		return errors.Errorf("notification TTL must be positive, got %s", c.NotificationTTL)
	}
	if c.RateLimit.Max < 0 {
		return errors.Errorf("rate limit max must not be negative, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Admin.PasswordHash != "" && c.Admin.Pepper == "" {
		return errors.New("admin pepper is required when a password hash is set")
	}
	for name, raw := range map[string]string{
		"whatsapp":  c.Contact.WhatsApp,
		"instagram": c.Contact.Instagram,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Errorf("invalid %s contact URL %q", name, raw)
		}
	}
	return nil
}

// Contacts returns the configured contact links in display order.
func (c *Config) Contacts() []handler.Contact {
	var out []handler.Contact
	if c.Contact.Email != "" {
		out = append(out, handler.Contact{Kind: "email", URL: "mailto:" + c.Contact.Email})
	}
	if c.Contact.WhatsApp != "" {
		out = append(out, handler.Contact{Kind: "whatsapp", URL: c.Contact.WhatsApp})
	}
	if c.Contact.Instagram != "" {
		out = append(out, handler.Contact{Kind: "instagram", URL: c.Contact.Instagram})
	}
	return out
}
