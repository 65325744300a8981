package config

// Constants defining default values for application configuration
const (
	DefaultSourcesCSVPath = "./sources.csv"
	DefaultDBDriver       = "sqlite3"
	DefaultDBPath         = "./uutisvahti.db"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultInterval     = 30 // Minutes between ingestion runs
	DefaultRunTimeout   = 10 // Minutes a single ingestion run may take
	DefaultMaxEntries   = 20 // Entries considered per source and run
	DefaultFetchTimeout = 15 // Seconds per feed request

	DefaultUserAgent = "AI-Uutisvahti/1.0"

	DefaultSeenTTL = 30 * 24 // Hours a seen URL stays in the cache

	DefaultAMQPExchange = "uutisvahti"

	DefaultLLMEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	DefaultLLMModel    = "gemini-2.0-flash"
	DefaultEnrichBatch = 5
	DefaultEnrichDelay = 5 // Seconds between summarisation calls

	DefaultLogLevel = "info"
)
