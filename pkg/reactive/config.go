package reactive

// DebugMode turns on every debug log of the engine, as if LogEffectRuns and
// LogTracking were both set. Set it at startup, before effects run.
var DebugMode bool

// DebugConfig controls debugging features for development.
type DebugConfig struct {
	// IncludeSourceLocations attaches the caller's file:line to diagnostics.
	// Default: false (for performance).
	IncludeSourceLocations bool

	// LogEffectRuns logs each effect run at debug level.
	// Default: false.
	LogEffectRuns bool

	// LogTracking logs every new subscription and every trigger at debug level.
	// Default: false.
	LogTracking bool
}

// DefaultDebugConfig returns a DebugConfig with all debugging disabled.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{}
}

// Debug is the global debug configuration.
// Modify this at application startup to enable debugging features.
var Debug = DefaultDebugConfig()
