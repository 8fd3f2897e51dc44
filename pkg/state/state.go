// Package state tracks per-stream replication bookmarks and their
// persistence between sync runs.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/dataflowlabs/tap-appmetrica/pkg/utils"
)

// State holds the high-water-mark cursors for every stream, in the shape
// Singer targets expect: {"bookmarks": {"<stream>": {"<key>": "<value>"}}}.
type State struct {
	Bookmarks map[string]map[string]interface{} `json:"bookmarks"`
}

func New() *State {
	return &State{Bookmarks: make(map[string]map[string]interface{})}
}

func Parse(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]map[string]interface{})
	}
	return &s, nil
}

// Bookmark returns the stored cursor value for a stream's replication key.
func (s *State) Bookmark(stream, key string) (string, bool) {
	m, ok := s.Bookmarks[stream]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", v), true
}

// SetBookmark advances a cursor. A bookmark only ever moves forward: if the
// stored value is newer than the candidate, the stored value wins.
func (s *State) SetBookmark(stream, key, value string) {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]map[string]interface{})
	}
	if existing, ok := s.Bookmark(stream, key); ok && !isAfter(value, existing) {
		return
	}
	if s.Bookmarks[stream] == nil {
		s.Bookmarks[stream] = make(map[string]interface{})
	}
	s.Bookmarks[stream][key] = value
}

// Merge folds another state into this one, keeping the newer cursor when
// both sides track the same stream and key.
func (s *State) Merge(other *State) {
	if other == nil {
		return
	}
	for stream, marks := range other.Bookmarks {
		for key, v := range marks {
			if v == nil {
				continue
			}
			s.SetBookmark(stream, key, fmt.Sprintf("%v", v))
		}
	}
}

// Value returns the payload for a STATE message.
func (s *State) Value() map[string]interface{} {
	return map[string]interface{}{"bookmarks": s.Bookmarks}
}

// isAfter compares two cursor values as timestamps, falling back to
// string comparison when either side does not parse.
func isAfter(a, b string) bool {
	ta, errA := utils.ParseDateTime(a)
	tb, errB := utils.ParseDateTime(b)
	if errA == nil && errB == nil {
		return ta.After(tb)
	}
	return a > b
}
