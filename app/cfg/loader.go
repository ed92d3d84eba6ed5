package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"autopost_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"autopost" description:"Database name"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	TemplatesDir string `long:"templates-dir" env:"TEMPLATES_DIR" default:"./templates" description:"Directory containing prompt template preset files"`

	// OpenAI configuration
	OpenAIAPIKey   string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required)" required:"true"`
	OpenAIEndpoint string `long:"openai-endpoint" env:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1/chat/completions" description:"OpenAI chat completions endpoint"`
	OpenAIModel    string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4-turbo" description:"OpenAI model for title and body generation"`

	// Pixabay configuration
	PixabayAPIKey string `long:"pixabay-api-key" env:"PIXABAY_API_KEY" description:"Pixabay API key (image lookup disabled when empty)"`

	// Pipeline configuration
	WorkerCount         int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for article processing"`
	SchedulerInterval   int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Reconciliation interval in seconds"`
	GenerationBatchSize int    `long:"generation-batch-size" env:"GENERATION_BATCH_SIZE" default:"5" description:"Maximum posts claimed for generation per tick"`
	PublishBatchSize    int    `long:"publish-batch-size" env:"PUBLISH_BATCH_SIZE" default:"10" description:"Maximum posts claimed for publication per tick"`
	GenerationPacing    int    `long:"generation-pacing" env:"GENERATION_PACING" default:"2" description:"Pause in seconds between generated articles"`
	ScheduleDays        int    `long:"schedule-days" env:"SCHEDULE_DAYS" default:"30" description:"Number of days the posting schedule spans"`
	ScheduleMinGap      int    `long:"schedule-min-gap" env:"SCHEDULE_MIN_GAP" default:"7200" description:"Minimum gap in seconds between same-day posts"`
	ScheduleTimezone    string `long:"schedule-timezone" env:"SCHEDULE_TIMEZONE" default:"Asia/Tokyo" description:"Timezone the posting window is sampled in"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Autopost/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		Port:                raw.Port,
		APIAccessKey:        raw.APIAccessKey,
		TemplatesDir:        raw.TemplatesDir,
		OpenAIAPIKey:        raw.OpenAIAPIKey,
		OpenAIEndpoint:      raw.OpenAIEndpoint,
		OpenAIModel:         raw.OpenAIModel,
		PixabayAPIKey:       raw.PixabayAPIKey,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		GenerationBatchSize: raw.GenerationBatchSize,
		PublishBatchSize:    raw.PublishBatchSize,
		GenerationPacing:    raw.GenerationPacing,
		ScheduleDays:        raw.ScheduleDays,
		ScheduleMinGap:      raw.ScheduleMinGap,
		ScheduleTimezone:    raw.ScheduleTimezone,
		UserAgent:           raw.UserAgent,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if _, err := time.LoadLocation(cfg.ScheduleTimezone); err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.ScheduleTimezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// ScheduleLocation resolves the configured posting-window timezone.
// Load has already validated the name, so errors fall back to UTC.
func (c *Cfg) ScheduleLocation() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
