package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port         string
	APIAccessKey string
	TemplatesDir string

	// OpenAI configuration
	OpenAIAPIKey   string
	OpenAIEndpoint string
	OpenAIModel    string

	// Pixabay configuration
	PixabayAPIKey string

	// Pipeline configuration
	WorkerCount         int
	SchedulerInterval   int
	GenerationBatchSize int
	PublishBatchSize    int
	GenerationPacing    int
	ScheduleDays        int
	ScheduleMinGap      int
	ScheduleTimezone    string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
