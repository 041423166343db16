package history

// Mode determines how a URL update affects the history stack.
type Mode int

const (
	// ModeReplace replaces the current history entry (no back button spam).
	ModeReplace Mode = iota

	// ModePush adds a new history entry.
	ModePush
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeReplace:
		return "replace"
	case ModePush:
		return "push"
	default:
		return "unknown"
	}
}

// History is a location that can be read and overwritten.
//
// Current returns the full URL of the current entry. Replace swaps the
// current entry for url without adding a new one.
type History interface {
	Current() string
	Replace(url string) error
}

// MarshalText implements encoding.TextMarshaler so patches carry the mode
// name on the wire.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
