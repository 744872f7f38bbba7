package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (W101-W199)
	// ============================================

	"W101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The file passed with --config does not exist or cannot be read.",
	},
	"W102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "wstask.json must be a single JSON object. Check for trailing commas and unquoted keys.",
	},
	"W103": {
		Category: CategoryConfig,
		Message:  "Invalid connection mode",
		Detail:   "The connection mode must be one of: both, binary, text.",
	},
	"W104": {
		Category: CategoryConfig,
		Message:  "Invalid payload format",
		Detail:   "The payload format must be one of: json, compact.",
	},
	"W105": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations are Go duration strings such as \"500ms\", \"10s\" or \"1m\".",
	},
	"W106": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of: debug, info, warn, error.",
	},
	"W107": {
		Category: CategoryConfig,
		Message:  "Invalid transcript target",
		Detail:   "A transcript target is a directory path or an s3://bucket/prefix URL.",
	},
	"W108": {
		Category: CategoryConfig,
		Message:  "Invalid server settings",
		Detail:   "The echo server needs a listen address and a positive upgrade rate.",
	},

	// ============================================
	// Connection Errors (W201-W299)
	// ============================================

	"W201": {
		Category: CategoryConnection,
		Message:  "Invalid WebSocket URL",
		Detail:   "The URL must use ws, wss, http or https, name a host and carry no fragment.",
	},
	"W202": {
		Category: CategoryConnection,
		Message:  "Connection failed",
		Detail:   "The socket reported an error before the handshake completed. Check that the server is running and accepts WebSocket upgrades.",
	},
	"W203": {
		Category: CategoryConnection,
		Message:  "Connection lost",
		Detail:   "The socket closed or failed before the exchange finished.",
	},
	"W204": {
		Category: CategoryConnection,
		Message:  "Timed out waiting for echo",
		Detail:   "No reply arrived within the configured timeout.",
	},
	"W205": {
		Category: CategoryConnection,
		Message:  "Unexpected echo payload",
		Detail:   "The reply could not be decoded with the configured format.",
	},
	"W206": {
		Category: CategoryConnection,
		Message:  "Echo server failed",
		Detail:   "The echo server could not listen on the configured address or stopped unexpectedly.",
	},

	// ============================================
	// Transcript Errors (W301-W399)
	// ============================================

	"W301": {
		Category: CategoryTranscript,
		Message:  "Transcript write failed",
		Detail:   "The transcript could not be written to the target directory.",
	},
	"W302": {
		Category: CategoryTranscript,
		Message:  "Transcript upload failed",
		Detail:   "The transcript could not be uploaded to S3. Check the bucket, region and credentials.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
