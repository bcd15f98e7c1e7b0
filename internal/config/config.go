package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "ARTICLE_SIGNALS_CONFIG"
	storageDriverEnv  = "ARTICLE_SIGNALS_STORAGE_DRIVER"
	dataDirEnv        = "ARTICLE_SIGNALS_DATA_DIR"
	logLevelEnv       = "ARTICLE_SIGNALS_LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Storage       StorageConfig      `yaml:"storage"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
	Normalizer    NormalizerConfig   `yaml:"normalizer"`
	Lifecycle     LifecycleConfig    `yaml:"lifecycle"`
	Authority     AuthorityConfig    `yaml:"authority"`
	Trust         TrustConfig        `yaml:"trust"`
	Intake        IntakeConfig       `yaml:"intake"`
	Promotion     PromotionConfig    `yaml:"promotion"`
	Feeds         []FeedConfig       `yaml:"feeds"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig describes where snapshots live.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	DataDir    string `yaml:"dataDir"`
	CorpusFile string `yaml:"corpusFile"`
	SignalsDir string `yaml:"signalsDir"`
	SQLiteFile string `yaml:"sqliteFile"`
}

// CorpusPath is the JSON corpus snapshot location.
func (s StorageConfig) CorpusPath() string {
	return filepath.Join(s.DataDir, s.CorpusFile)
}

// SignalsPath is the directory holding live state and artifacts.
func (s StorageConfig) SignalsPath() string {
	return filepath.Join(s.DataDir, s.SignalsDir)
}

// SQLitePath is the database file used by the sqlite driver.
func (s StorageConfig) SQLitePath() string {
	return filepath.Join(s.DataDir, s.SQLiteFile)
}

// SchedulerConfig defines how often the pipelines run in serve mode.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig controls the prometheus endpoint of serve mode.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// Enabled reports whether alerts can be delivered.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// NormalizerConfig holds schema gate thresholds.
type NormalizerConfig struct {
	BreakingTTL        time.Duration `yaml:"breakingTTL"`
	MaxBreakingAllowed int           `yaml:"maxBreakingAllowed"`
	MinContentWords    int           `yaml:"minContentWords"`
}

// LifecycleConfig holds every age and count threshold of the lifecycle rules.
type LifecycleConfig struct {
	MinSignalAgeDays  int      `yaml:"minSignalAgeDays"`
	MaxSignalAgeDays  int      `yaml:"maxSignalAgeDays"`
	LockThreshold     int      `yaml:"lockThreshold"`
	DecayDays         int      `yaml:"decayDays"`
	LowSignalDays     int      `yaml:"lowSignalDays"`
	WarningDays       int      `yaml:"warningDays"`
	WarningLimit      int      `yaml:"warningLimit"`
	RecoveryMinDays   int      `yaml:"recoveryMinDays"`
	RecoveryMaxDays   int      `yaml:"recoveryMaxDays"`
	DropAfterDays     int      `yaml:"dropAfterDays"`
	MaxRecoveries     int      `yaml:"maxRecoveries"`
	EvergreenTopics   []string `yaml:"evergreenTopics"`
	EvergreenPerTopic int      `yaml:"evergreenPerTopic"`
	EvergreenMarker   string   `yaml:"evergreenMarker"`
}

// AuthorityConfig holds winner detection thresholds.
type AuthorityConfig struct {
	WinnerMinAge       time.Duration `yaml:"winnerMinAge"`
	WinnerMinAuthority int           `yaml:"winnerMinAuthority"`
	WinnerMinComposite int           `yaml:"winnerMinComposite"`
}

// TrustConfig holds site quality and throttle thresholds.
type TrustConfig struct {
	MinContentChars   int           `yaml:"minContentChars"`
	StaleAfter        time.Duration `yaml:"staleAfter"`
	ThrottleBelow     int           `yaml:"throttleBelow"`
	ReducedBelow      int           `yaml:"reducedBelow"`
	MaxArticles       int           `yaml:"maxArticles"`
	ReducedArticles   int           `yaml:"reducedArticles"`
	ThrottledArticles int           `yaml:"throttledArticles"`
	RecentWindow      int           `yaml:"recentWindow"`
	SlowBelow         float64       `yaml:"slowBelow"`
	FastAbove         float64       `yaml:"fastAbove"`
}

// IntakeConfig configures the live intake engine.
type IntakeConfig struct {
	TTL              time.Duration `yaml:"ttl"`
	MaxPerRun        int           `yaml:"maxPerRun"`
	MaxPerFeed       int           `yaml:"maxPerFeed"`
	BufferSize       int           `yaml:"bufferSize"`
	FetchConcurrency int           `yaml:"fetchConcurrency"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`
	BreakingKeywords []string      `yaml:"breakingKeywords"`
}

// PromotionConfig configures how many live items become articles per run.
type PromotionConfig struct {
	Enabled   bool `yaml:"enabled"`
	MaxPerRun int  `yaml:"maxPerRun"`
}

// FeedConfig describes a single headline source with its scanner strategy.
type FeedConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Weight  int               `yaml:"weight"`
	Scanner string            `yaml:"scanner"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) over defaults and applies environment overrides.
// An explicit path wins over ARTICLE_SIGNALS_CONFIG. A file that cannot be read or parsed is fatal.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = Default().Feeds
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown scheduler timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

// Validate rejects settings that would make a pass meaningless.
func (c Config) Validate() error {
	var errs []error
	if c.Storage.Driver != DriverJSON && c.Storage.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverJSON, DriverSQLite, c.Storage.Driver))
	}
	positive := map[string]int{
		"normalizer.maxBreakingAllowed": c.Normalizer.MaxBreakingAllowed,
		"lifecycle.lockThreshold":       c.Lifecycle.LockThreshold,
		"lifecycle.maxRecoveries":       c.Lifecycle.MaxRecoveries,
		"lifecycle.warningLimit":        c.Lifecycle.WarningLimit,
		"intake.maxPerRun":              c.Intake.MaxPerRun,
		"intake.maxPerFeed":             c.Intake.MaxPerFeed,
		"intake.bufferSize":             c.Intake.BufferSize,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if c.Normalizer.BreakingTTL <= 0 {
		errs = append(errs, errors.New("normalizer.breakingTTL must be positive"))
	}
	if c.Intake.TTL <= 0 {
		errs = append(errs, errors.New("intake.ttl must be positive"))
	}
	if c.Lifecycle.MinSignalAgeDays > c.Lifecycle.MaxSignalAgeDays {
		errs = append(errs, errors.New("lifecycle.minSignalAgeDays exceeds maxSignalAgeDays"))
	}
	if c.Lifecycle.RecoveryMinDays > c.Lifecycle.RecoveryMaxDays {
		errs = append(errs, errors.New("lifecycle.recoveryMinDays exceeds recoveryMaxDays"))
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("feeds[%d] has no url", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Default returns the built-in settings.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Driver:     DriverJSON,
			DataDir:    ".",
			CorpusFile: "data.json",
			SignalsDir: "signals",
			SQLiteFile: "signals.db",
		},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone, location: tz},
		Normalizer: NormalizerConfig{
			BreakingTTL:        2 * time.Hour,
			MaxBreakingAllowed: 3,
			MinContentWords:    250,
		},
		Lifecycle: LifecycleConfig{
			MinSignalAgeDays:  3,
			MaxSignalAgeDays:  7,
			LockThreshold:     2,
			DecayDays:         30,
			LowSignalDays:     5,
			WarningDays:       4,
			WarningLimit:      5,
			RecoveryMinDays:   3,
			RecoveryMaxDays:   10,
			DropAfterDays:     5,
			MaxRecoveries:     3,
			EvergreenTopics:   []string{"Economy", "Technology", "Policy", "AI"},
			EvergreenPerTopic: 3,
			EvergreenMarker:   "Updated with recent context.",
		},
		Authority: AuthorityConfig{
			WinnerMinAge:       24 * time.Hour,
			WinnerMinAuthority: 5,
			WinnerMinComposite: 70,
		},
		Trust: TrustConfig{
			MinContentChars:   800,
			StaleAfter:        48 * time.Hour,
			ThrottleBelow:     80,
			ReducedBelow:      90,
			MaxArticles:       10,
			ReducedArticles:   6,
			ThrottledArticles: 4,
			RecentWindow:      10,
			SlowBelow:         0.2,
			FastAbove:         0.5,
		},
		Intake: IntakeConfig{
			TTL:              2 * time.Hour,
			MaxPerRun:        10,
			MaxPerFeed:       10,
			BufferSize:       30,
			FetchConcurrency: 4,
			FetchTimeout:     20 * time.Second,
			BreakingKeywords: []string{"breaking", "crisis", "surge", "record", "emergency"},
		},
		Promotion: PromotionConfig{Enabled: true, MaxPerRun: 4},
		Feeds: []FeedConfig{
			{Name: "Reuters", URL: "https://feeds.reuters.com/reuters/topNews", Weight: 3, Scanner: "rss"},
			{Name: "AP", URL: "https://apnews.com/rss", Weight: 2, Scanner: "rss"},
			{Name: "BBC", URL: "https://www.bbc.co.uk/news/rss.xml", Weight: 2, Scanner: "rss"},
		},
	}
}
