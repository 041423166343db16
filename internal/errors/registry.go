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
	// Input Errors (T100-T119)
	// ============================================

	"T100": {
		Category: CategoryInput,
		Message:  "Invalid URL",
		Detail:   "The current location could not be parsed as a URL, so table state cannot be written to it.",
	},
	"T101": {
		Category: CategoryInput,
		Message:  "Invalid table params",
		Detail:   "The params document must be a JSON object with queries, filters, limit and page.",
	},
	"T102": {
		Category: CategoryInput,
		Message:  "Invalid filter definitions",
		Detail:   "Filter definitions must be a JSON array of {id, label, options: [{label, value}]}.",
	},
	"T103": {
		Category: CategoryInput,
		Message:  "Invalid flag value",
		Detail:   "A command-line flag has a value that cannot be used.",
	},

	// ============================================
	// Config Errors (T120-T139)
	// ============================================

	"T120": {
		Category: CategoryConfig,
		Message:  "Invalid tablequery.json",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"T121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No tablequery.json was found in the given directory.",
	},
	"T122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or not recognised.",
	},

	// ============================================
	// Server Errors (T140-T159)
	// ============================================

	"T140": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server could not start or stopped unexpectedly.",
	},
	"T141": {
		Category: CategoryServer,
		Message:  "Shutdown timed out",
		Detail:   "Open connections did not finish before the shutdown timeout.",
	},

	// ============================================
	// Protocol Errors (T160-T179)
	// ============================================

	"T160": {
		Category: CategoryProtocol,
		Message:  "Invalid live message",
		Detail:   "A live-channel message was not valid JSON or had an unknown type.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
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
