package logsink

const (
	// EnvLogLevel names the environment variable whose level takes precedence
	// over the configured one, when it parses.
	EnvLogLevel = "LOGSINK_LEVEL"

	// DefaultMaxSizeKB is used when the configuration has no max file size.
	DefaultMaxSizeKB uint64 = 128
	// DefaultMaxCount is used when the configuration has no retention count.
	DefaultMaxCount = 8

	// ModuleFieldName is the record field carrying the originating module.
	ModuleFieldName = "module"
	// DefaultModule is used for records emitted without a module name.
	DefaultModule = "app"

	liveFileName      = "latest.log"
	archiveExt        = ".log"
	archiveTimeFormat = "2006-01-02_15-04-05"
	sidecarDirName    = "sidecar"
	emptyString       = ""
)

const (
	errMsgNilService    = "Logger service is nil."
	errMsgNilConfig     = "Logging config is not set."
	errMsgNilDirs       = "Log directory resolver is not set."
	errMsgPolicyInvalid = "Rotation policy is invalid."
	errMsgWriterClosed  = "Log file writer is closed."
)
