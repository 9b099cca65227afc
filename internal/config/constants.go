package config

import "time"

// Application constants
const (
	AppName   = "gdv"
	AppTitle  = "GDV Country Indicator Service"
	AppVendor = "MorMundHS-MA"

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// WebSocket buffer sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultExportsDir = "exports"
	DefaultLogFile    = "logs/gdv.log"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Snapshot feed
	DefaultFrameInterval  = time.Second
	DefaultFrameIndicator = "ineqComb"

	// API endpoints
	APIBasePath       = "/api"
	DataEndpoint      = "/api/data"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// DataFileExtensions are the source formats recognised in the data directory
var DataFileExtensions = []string{".csv", ".json"}
