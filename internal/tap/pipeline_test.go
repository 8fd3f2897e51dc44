package tap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
	"github.com/dataflowlabs/tap-appmetrica/pkg/singer"
	"github.com/dataflowlabs/tap-appmetrica/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	def     StreamDef
	windows []Window
	records []map[string]interface{}
	failOn  int // 1-based extract call that fails, 0 = never
}

func (f *fakeStream) Def() StreamDef { return f.def }

func (f *fakeStream) Extract(ctx context.Context, w Window) ([]map[string]interface{}, error) {
	f.windows = append(f.windows, w)
	if f.failOn > 0 && len(f.windows) == f.failOn {
		return nil, errors.New("boom")
	}
	return f.records, nil
}

func parseMessages(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func newTestPipeline(t *testing.T, stream Stream, st *state.State, settings *models.Settings) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	p := NewPipeline(stream, singer.NewWriter(&buf), store, st, settings)
	p.Now = func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) }
	return p, &buf
}

func syncSettings() *models.Settings {
	return &models.Settings{
		ApplicationID: "12345",
		Token:         "t",
		StartDate:     "2024-01-01",
		ChunkDays:     1,
	}
}

func TestPipelineWalksWindowsAndCheckpoints(t *testing.T) {
	stream := &fakeStream{
		def:     eventsStream(),
		records: []map[string]interface{}{{"event_name": "app_open"}},
	}
	st := state.New()
	p, buf := newTestPipeline(t, stream, st, syncSettings())

	require.NoError(t, p.Run(context.Background()))

	// 2024-01-01 -> 2024-01-03 12:00 in 1-day chunks: two full days plus
	// the final half-day window.
	require.Len(t, stream.windows, 3)
	assert.Equal(t, "2024-01-01 00:00:00", stream.windows[0].Since.Format(TimeLayout))
	assert.Equal(t, "2024-01-02 00:00:00", stream.windows[0].Until.Format(TimeLayout))
	assert.Equal(t, "2024-01-03 12:00:00", stream.windows[2].Until.Format(TimeLayout))

	bm, ok := st.Bookmark("events", "event_receive_date")
	require.True(t, ok)
	assert.Equal(t, "2024-01-03 12:00:00", bm)

	msgs := parseMessages(t, buf)
	// SCHEMA, then (RECORD, STATE) per window.
	require.Len(t, msgs, 7)
	assert.Equal(t, "SCHEMA", msgs[0]["type"])
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, "RECORD", msgs[i]["type"])
		assert.Equal(t, "STATE", msgs[i+1]["type"])
	}
}

func TestPipelineResumesFromBookmark(t *testing.T) {
	stream := &fakeStream{def: eventsStream()}
	st := state.New()
	st.SetBookmark("events", "event_receive_date", "2024-01-03 00:00:00")
	p, _ := newTestPipeline(t, stream, st, syncSettings())

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, stream.windows, 1)
	assert.Equal(t, "2024-01-03 00:00:00", stream.windows[0].Since.Format(TimeLayout))
	assert.Equal(t, "2024-01-03 12:00:00", stream.windows[0].Until.Format(TimeLayout))
}

func TestPipelineEmptyWindowStillAdvancesState(t *testing.T) {
	stream := &fakeStream{def: eventsStream()} // no records
	st := state.New()
	p, buf := newTestPipeline(t, stream, st, syncSettings())

	require.NoError(t, p.Run(context.Background()))

	bm, ok := st.Bookmark("events", "event_receive_date")
	require.True(t, ok)
	assert.Equal(t, "2024-01-03 12:00:00", bm)

	for _, m := range parseMessages(t, buf) {
		assert.NotEqual(t, "RECORD", m["type"])
	}
}

func TestPipelineNothingToDoWhenBookmarkCurrent(t *testing.T) {
	stream := &fakeStream{def: eventsStream()}
	st := state.New()
	st.SetBookmark("events", "event_receive_date", "2024-01-03 12:00:00")
	p, buf := newTestPipeline(t, stream, st, syncSettings())

	require.NoError(t, p.Run(context.Background()))

	assert.Empty(t, stream.windows)
	msgs := parseMessages(t, buf)
	require.Len(t, msgs, 1)
	assert.Equal(t, "SCHEMA", msgs[0]["type"])
}

func TestPipelineFailureKeepsLastCompletedWindow(t *testing.T) {
	stream := &fakeStream{
		def:     eventsStream(),
		records: []map[string]interface{}{{"event_name": "app_open"}},
		failOn:  2,
	}
	st := state.New()
	p, _ := newTestPipeline(t, stream, st, syncSettings())

	err := p.Run(context.Background())
	require.Error(t, err)

	// The bookmark stops at the end of window 1, so a rerun repeats
	// window 2 instead of skipping it.
	bm, ok := st.Bookmark("events", "event_receive_date")
	require.True(t, ok)
	assert.Equal(t, "2024-01-02 00:00:00", bm)
}

func TestPipelineInvalidStartDate(t *testing.T) {
	stream := &fakeStream{def: eventsStream()}
	settings := syncSettings()
	settings.StartDate = "yesterday"
	p, _ := newTestPipeline(t, stream, state.New(), settings)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}

func TestPipelineDefaultLookback(t *testing.T) {
	stream := &fakeStream{def: eventsStream()}
	settings := syncSettings()
	settings.StartDate = ""
	settings.ChunkDays = 7
	p, _ := newTestPipeline(t, stream, state.New(), settings)

	require.NoError(t, p.Run(context.Background()))

	require.NotEmpty(t, stream.windows)
	assert.Equal(t, "2023-12-27 12:00:00", stream.windows[0].Since.Format(TimeLayout))
}
