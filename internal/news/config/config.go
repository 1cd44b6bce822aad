package config

import (
	"time"

	"golang-goodnews/pkg/config"
)

// News holds the pipeline settings.
type News struct {
	// Adapter selects the source registry entry ("multi", "guardian", "newsapi", "rss").
	Adapter string `mapstructure:"adapter"`
	// Analyzer selects the positivity analyzer ("sentiment", "gemini").
	Analyzer           string `mapstructure:"analyzer"`
	MinPositivityScore int    `mapstructure:"min_positivity_score"`
	ScoringWorkers     int    `mapstructure:"scoring_workers"`
}

// Cache holds response cache settings.
type Cache struct {
	Driver      string        `mapstructure:"driver"` // "memory" or "redis"
	TTL         time.Duration `mapstructure:"ttl"`
	CheckPeriod time.Duration `mapstructure:"check_period"`
}

// Guardian holds the configuration for the Guardian content API.
type Guardian struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	LookbackDays        int           `mapstructure:"lookback_days"`
}

// NewsAPI holds the configuration for newsapi.org.
type NewsAPI struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	LookbackHours       int           `mapstructure:"lookback_hours"`
	Language            string        `mapstructure:"language"`
}

// RSS holds the curated feed lists keyed by topic.
type RSS struct {
	Timeout            time.Duration       `mapstructure:"timeout"`
	UserAgent          string              `mapstructure:"user_agent"`
	Feeds              map[string][]string `mapstructure:"feeds"`
	ExtractFullContent bool                `mapstructure:"extract_full_content"`
}

// Gemini holds the configuration for the Gemini positivity analyzer.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Refresh holds the scheduled refresh settings.
type Refresh struct {
	Enabled   bool          `mapstructure:"enabled"`
	Cron      string        `mapstructure:"cron"`
	Topics    []string      `mapstructure:"topics"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retention time.Duration `mapstructure:"retention"`
}

// Telegram holds configuration for the refresh digest notifier.
type Telegram struct {
	BotToken   string `mapstructure:"bot_token"`
	ChatID     int64  `mapstructure:"chat_id"`
	DigestSize int    `mapstructure:"digest_size"`
}

// Config holds the full configuration for the news service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	News     News            `mapstructure:"news"`
	Cache    Cache           `mapstructure:"cache"`
	Guardian Guardian        `mapstructure:"guardian"`
	NewsAPI  NewsAPI         `mapstructure:"newsapi"`
	RSS      RSS             `mapstructure:"rss"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Refresh  Refresh         `mapstructure:"refresh"`
	Telegram Telegram        `mapstructure:"telegram"`
}

// DefaultFeeds is the curated positive-news feed list used when none is configured.
var DefaultFeeds = map[string][]string{
	"all": {
		"https://www.goodnewsnetwork.org/feed/",
		"https://www.positive.news/feed/",
		"https://www.happynews.com/rss/headlines.htm",
	},
	"technology": {
		"https://www.technologyreview.com/feed/",
		"https://techcrunch.com/feed/",
	},
	"science": {
		"https://www.sciencedaily.com/rss/top/science.xml",
		"https://www.scientificamerican.com/feed/",
	},
	"environment": {
		"https://www.treehugger.com/feeds/latest",
		"https://www.positive.news/environment/feed/",
	},
	"health": {
		"https://www.medicalnewstoday.com/rss/news.xml",
		"https://www.positive.news/health/feed/",
	},
	"community":       {"https://www.goodnewsnetwork.org/category/news/inspiring/feed/"},
	"education":       {"https://www.positive.news/education/feed/"},
	"arts":            {"https://www.positive.news/arts/feed/"},
	"social_progress": {"https://www.positive.news/society/feed/"},
}

// Defaults returns the value used for every key missing from file and environment.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":    "goodnews-api",
		"app.env":     "development",
		"app.version": "1.0.0",

		"logger.level":    "info",
		"logger.encoding": "json",

		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.password":          "",
		"database.name":              "goodnews",
		"database.ssl_mode":          "disable",
		"database.time_zone":         "UTC",
		"database.max_idle_conns":    5,
		"database.max_open_conns":    20,
		"database.conn_max_lifetime": "1h",
		"database.log_level":         "warn",

		"redis.host":      "localhost",
		"redis.port":      6379,
		"redis.password":  "",
		"redis.db":        0,
		"redis.pool_size": 10,

		"api.host": "0.0.0.0",
		"api.port": 3000,

		"news.adapter":              "multi",
		"news.analyzer":             "sentiment",
		"news.min_positivity_score": 40,
		"news.scoring_workers":      8,

		"cache.driver":       "memory",
		"cache.ttl":          time.Hour,
		"cache.check_period": 10 * time.Minute,

		"guardian.api_key":                "",
		"guardian.base_url":               "https://content.guardianapis.com",
		"guardian.timeout":                10 * time.Second,
		"guardian.max_request_per_minute": 60,
		"guardian.lookback_days":          7,

		"newsapi.api_key":                "",
		"newsapi.base_url":               "https://newsapi.org/v2",
		"newsapi.timeout":                10 * time.Second,
		"newsapi.max_request_per_minute": 5,
		"newsapi.lookback_hours":         24,
		"newsapi.language":               "en",

		"rss.timeout":              10 * time.Second,
		"rss.user_agent":           "GoodNewsApp/1.0",
		"rss.feeds":                feedDefaults(),
		"rss.extract_full_content": false,

		"gemini.api_key":                "",
		"gemini.model":                  "gemini-2.0-flash",
		"gemini.max_request_per_minute": 15,

		"refresh.enabled":   true,
		"refresh.cron":      "*/30 * * * *",
		"refresh.topics":    []string{"all"},
		"refresh.timeout":   5 * time.Minute,
		"refresh.retention": 30 * 24 * time.Hour,

		"telegram.bot_token":   "",
		"telegram.chat_id":     0,
		"telegram.digest_size": 5,
	}
}

// feedDefaults exposes DefaultFeeds as a nested map so viper can merge per-topic overrides.
func feedDefaults() map[string]interface{} {
	feeds := make(map[string]interface{}, len(DefaultFeeds))
	for topic, urls := range DefaultFeeds {
		feeds[topic] = urls
	}
	return feeds
}

// Load loads the news service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults()); err != nil {
		return nil, err
	}
	return &cfg, nil
}
