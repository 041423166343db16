package tablequery

import (
	"sync"

	"github.com/vango-go/tablequery/pkg/history"
)

// Syncer writes table state to a history through a codec.
//
// Every write re-reads the current location, encodes on top of it and
// replaces the entry while holding a lock, so concurrent writers serialise
// and the last one wins without clobbering unrelated parameters.
type Syncer struct {
	mu      sync.Mutex
	codec   *Codec
	history history.History
}

// NewSyncer binds codec to h. A nil codec uses the defaults.
func NewSyncer(codec *Codec, h history.History) *Syncer {
	if codec == nil {
		codec = defaultCodec
	}
	return &Syncer{codec: codec, history: h}
}

// Load decodes the current location.
func (s *Syncer) Load() State {
	return s.codec.Decode(s.history.Current())
}

// Push encodes p into the current location and replaces the entry.
func (s *Syncer) Push(p Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.codec.Encode(s.history.Current(), p)
	if err != nil {
		return "", err
	}
	if err := s.history.Replace(next); err != nil {
		return "", err
	}
	return next, nil
}

// SetSelectAll sets or clears the select-all flag and replaces the entry.
func (s *Syncer) SetSelectAll(selected bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.codec.SetSelectAll(s.history.Current(), selected)
	if err != nil {
		return "", err
	}
	if err := s.history.Replace(next); err != nil {
		return "", err
	}
	return next, nil
}
