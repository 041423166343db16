package history

import "sync"

// URLPatch is a queued location update for a remote client.
type URLPatch struct {
	Mode Mode   `json:"mode"`
	URL  string `json:"url"`
}

// Navigator is a History for a remote client. It queues URL patches that the
// owner sends to the client, and tracks the location those patches leave the
// client at.
type Navigator struct {
	mu         sync.Mutex
	current    string
	queuePatch func(URLPatch) error
}

// NewNavigator creates a navigator positioned at current that queues patches
// via the provided function. A nil queuePatch drops patches but still tracks
// the location.
func NewNavigator(current string, queuePatch func(URLPatch) error) *Navigator {
	return &Navigator{current: current, queuePatch: queuePatch}
}

// Current returns the last location reported by the client or written by a
// patch.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Sync records a location the client navigated to on its own.
func (n *Navigator) Sync(url string) {
	n.mu.Lock()
	n.current = url
	n.mu.Unlock()
}

// Replace queues a replace patch.
func (n *Navigator) Replace(url string) error {
	return n.Navigate(url, ModeReplace)
}

// Navigate queues a URL patch with the given mode.
// The location is only advanced once the patch has been queued.
func (n *Navigator) Navigate(url string, mode Mode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.queuePatch != nil {
		if err := n.queuePatch(URLPatch{Mode: mode, URL: url}); err != nil {
			return err
		}
	}
	n.current = url
	return nil
}
