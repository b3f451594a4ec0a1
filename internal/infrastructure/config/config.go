package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
	"github.com/seblum/octiv-booker/internal/domain/user"
)

type Email struct {
	Sender    string
	Password  string
	Receivers []string
	Host      string
	Port      int
	Format    string // plain or html
	AttachLog bool
	SendOn    []string
}

func (e Email) Enabled() bool {
	return e.Sender != "" && e.Password != "" && len(e.Receivers) > 0
}

type Config struct {
	Env      string
	LogLevel string
	LogDir   string

	BaseURL              string
	DaysBeforeBookable   int
	ExecutionBookingTime string
	BookClass            bool
	Retries              int
	Headless             bool
	ChromePath           string
	ChromeRemoteURL      string
	AlertTimeout         time.Duration
	ErrorTimeout         time.Duration
	TimetableTimeout     time.Duration

	ClassDict booking.ClassDict
	Locators  locator.Catalog

	Octiv           user.SiteCredentials
	CredentialLabel string

	Email Email

	DatabaseURL string
	RedisURL    string
	HTTPAddr    string
	Schedule    string
	Timezone    string

	SessionHashKey  []byte
	SessionBlockKey []byte
	CredEncKey      []byte
}

func (c Config) Action() booking.Action { return locator.ActionFromBool(c.BookClass) }

func (c Config) IsProduction() bool { return c.Env == "production" }

// Location resolves Timezone, defaulting to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type Options struct {
	// File is an explicit config file. Empty searches config.yaml in . and ./config.
	File string
	// EnvFile is loaded into the process environment when it exists.
	EnvFile string
	// Flags are bound by name, dashes mapping to underscores.
	Flags *pflag.FlagSet
}

// env names for keys whose variable is not simply the upper-cased key.
var envNames = map[string][]string{
	"base_url":               {"BASE_URL"},
	"days_before_bookable":   {"DAYS_BEFORE_BOOKABLE"},
	"execution_booking_time": {"EXECUTION_BOOKING_TIME"},
	"book_class":             {"BOOK_CLASS"},
	"retries":                {"RETRIES"},
	"headless":               {"HEADLESS"},
	"chrome_path":            {"CHROME_PATH"},
	"chrome_remote_url":      {"CHROME_REMOTE_URL"},
	"env":                    {"ENV"},
	"log_level":              {"LOG_LEVEL"},
	"log_dir":                {"LOG_DIR"},
	"octiv.username":         {"OCTIV_USERNAME"},
	"octiv.password":         {"OCTIV_PASSWORD"},
	"octiv.label":            {"OCTIV_CREDENTIAL_LABEL"},
	"email.sender":           {"EMAIL_SENDER"},
	"email.password":         {"EMAIL_PASSWORD"},
	"email.receiver":         {"EMAIL_RECEIVER"},
	"email.host":             {"EMAIL_HOST"},
	"email.port":             {"EMAIL_PORT"},
	"database_url":           {"DATABASE_URL"},
	"redis_url":              {"REDIS_URL"},
	"http_addr":              {"HTTP_ADDR"},
	"schedule":               {"SCHEDULE"},
	"timezone":               {"TIMEZONE", "TZ"},
	"session_hash_key":       {"SESSION_HASH_KEY"},
	"session_block_key":      {"SESSION_BLOCK_KEY"},
	"cred_enc_key":           {"CRED_ENC_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("base_url", "https://app.octivfitness.com/login")
	v.SetDefault("days_before_bookable", 0)
	v.SetDefault("execution_booking_time", "00:00:00.000000")
	v.SetDefault("book_class", true)
	v.SetDefault("retries", 3)
	v.SetDefault("headless", true)
	v.SetDefault("alert_timeout", 3*time.Second)
	v.SetDefault("error_timeout", 3*time.Second)
	v.SetDefault("timetable_timeout", 20*time.Second)
	v.SetDefault("octiv.label", "default")
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 465)
	v.SetDefault("email.format", "html")
	v.SetDefault("email.attach_log", true)
	v.SetDefault("email.send_on", []string{"on_success", "on_failure", "on_neutral"})
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("schedule", "58 23 * * *")
}

func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", opts.EnvFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, err
		}
	}
	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, bindErr
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Env:                  v.GetString("env"),
		LogLevel:             v.GetString("log_level"),
		LogDir:               v.GetString("log_dir"),
		BaseURL:              v.GetString("base_url"),
		DaysBeforeBookable:   v.GetInt("days_before_bookable"),
		ExecutionBookingTime: v.GetString("execution_booking_time"),
		BookClass:            v.GetBool("book_class"),
		Retries:              v.GetInt("retries"),
		Headless:             v.GetBool("headless"),
		ChromePath:           v.GetString("chrome_path"),
		ChromeRemoteURL:      v.GetString("chrome_remote_url"),
		AlertTimeout:         v.GetDuration("alert_timeout"),
		ErrorTimeout:         v.GetDuration("error_timeout"),
		TimetableTimeout:     v.GetDuration("timetable_timeout"),
		Octiv: user.SiteCredentials{
			Username: v.GetString("octiv.username"),
			Password: v.GetString("octiv.password"),
		},
		CredentialLabel: v.GetString("octiv.label"),
		Email: Email{
			Sender:    v.GetString("email.sender"),
			Password:  v.GetString("email.password"),
			Receivers: splitReceivers(v.GetString("email.receiver")),
			Host:      v.GetString("email.host"),
			Port:      v.GetInt("email.port"),
			Format:    strings.ToLower(v.GetString("email.format")),
			AttachLog: v.GetBool("email.attach_log"),
			SendOn:    v.GetStringSlice("email.send_on"),
		},
		DatabaseURL: v.GetString("database_url"),
		RedisURL:    v.GetString("redis_url"),
		HTTPAddr:    v.GetString("http_addr"),
		Schedule:    v.GetString("schedule"),
		Timezone:    v.GetString("timezone"),
	}

	var err error
	if cfg.ClassDict, err = parseClassDict(v); err != nil {
		return Config{}, err
	}
	if err := v.UnmarshalKey("locators", &cfg.Locators); err != nil {
		return Config{}, fmt.Errorf("locators: %w", err)
	}
	cfg.Locators = cfg.Locators.WithDefaults()

	for key, dst := range map[string]*[]byte{
		"session_hash_key":  &cfg.SessionHashKey,
		"session_block_key": &cfg.SessionBlockKey,
		"cred_enc_key":      &cfg.CredEncKey,
	} {
		if *dst, err = optionalB64(v.GetString(key)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseClassDict reads class_dict. Viper lower-cases map keys, so weekday
// names match case-insensitively.
func parseClassDict(v *viper.Viper) (booking.ClassDict, error) {
	raw := map[string][]booking.Preference{}
	if err := v.UnmarshalKey("class_dict", &raw); err != nil {
		return nil, fmt.Errorf("class_dict: %w", err)
	}
	out := booking.ClassDict{}
	for name, prefs := range raw {
		d, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("class_dict: unknown weekday %q", name)
		}
		for i, p := range prefs {
			if p.ClassName == "" {
				return nil, fmt.Errorf("class_dict.%s[%d]: class is required", name, i)
			}
			if p.ClassName != booking.NoClass {
				if _, err := time.Parse("15:04", p.Time); err != nil {
					return nil, fmt.Errorf("class_dict.%s[%d]: time %q is not HH:MM", name, i, p.Time)
				}
			}
		}
		out[d] = prefs
	}
	return out, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, true
		}
	}
	return 0, false
}

func splitReceivers(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ";") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func optionalB64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

var sendOnValues = map[string]bool{"on_success": true, "on_failure": true, "on_neutral": true}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.DaysBeforeBookable < 0 {
		return fmt.Errorf("days_before_bookable must be >= 0 (got %d)", c.DaysBeforeBookable)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be >= 1 (got %d)", c.Retries)
	}
	if c.Email.Format != "plain" && c.Email.Format != "html" {
		return fmt.Errorf("email.format must be plain or html (got %q)", c.Email.Format)
	}
	for _, s := range c.Email.SendOn {
		if !sendOnValues[s] {
			return fmt.Errorf("email.send_on: unknown value %q", s)
		}
	}
	if len(c.CredEncKey) != 0 && len(c.CredEncKey) != 32 {
		return fmt.Errorf("CRED_ENC_KEY must decode to 32 bytes (got %d)", len(c.CredEncKey))
	}
	return nil
}

// RequireDashboard checks what serve needs beyond a booking run.
func (c Config) RequireDashboard() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.SessionHashKey) == 0 || len(c.SessionBlockKey) == 0 {
		return fmt.Errorf("SESSION_HASH_KEY and SESSION_BLOCK_KEY are required (base64)")
	}
	return nil
}
