package tap

import (
	"context"
	"fmt"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/logger"
	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
	"github.com/dataflowlabs/tap-appmetrica/pkg/singer"
	"github.com/dataflowlabs/tap-appmetrica/pkg/state"
	"github.com/dataflowlabs/tap-appmetrica/pkg/utils"
)

// Pipeline runs the incremental sync of one stream: it walks date windows
// from the bookmark to now, emits the records of each window and
// checkpoints state after every completed window.
type Pipeline struct {
	Stream   Stream
	Writer   *singer.Writer
	Store    state.Store
	State    *state.State
	Settings *models.Settings

	// Now is swappable for tests.
	Now func() time.Time
}

func NewPipeline(stream Stream, writer *singer.Writer, store state.Store, st *state.State, settings *models.Settings) *Pipeline {
	return &Pipeline{
		Stream:   stream,
		Writer:   writer,
		Store:    store,
		State:    st,
		Settings: settings,
		Now:      time.Now,
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	def := p.Stream.Def()
	now := p.Now().UTC()

	cursor, err := p.startCursor(def, now)
	if err != nil {
		return err
	}

	if err := p.Writer.WriteSchema(def.Name, def.Schema, def.PrimaryKeys, []string{def.ReplicationKey}); err != nil {
		return err
	}

	chunk := time.Duration(p.Settings.ChunkDays) * 24 * time.Hour
	logger.Infof("Starting stream %s. Cursor: %s, Chunk: %d day(s)",
		def.Name, cursor.Format(TimeLayout), p.Settings.ChunkDays)

	totalRecords := 0
	requests := 0
	startTime := time.Now()

	for cursor.Before(now) {
		windowEnd := cursor.Add(chunk)
		if windowEnd.After(now) {
			windowEnd = now
		}

		records, err := p.Stream.Extract(ctx, Window{Since: cursor, Until: windowEnd})
		if err != nil {
			logger.Errorf("Extraction failed for %s window %s..%s: %v",
				def.Name, cursor.Format(TimeLayout), windowEnd.Format(TimeLayout), err)
			return err
		}
		requests++

		for _, rec := range records {
			if err := p.Writer.WriteRecord(def.Name, rec); err != nil {
				return err
			}
		}
		totalRecords += len(records)

		// Checkpoint after the whole window so a rerun never skips rows.
		p.State.SetBookmark(def.Name, def.ReplicationKey, windowEnd.Format(TimeLayout))
		if err := p.Store.Save(p.State); err != nil {
			return fmt.Errorf("failed to checkpoint state: %w", err)
		}
		if err := p.Writer.WriteState(p.State.Value()); err != nil {
			return err
		}

		duration := time.Since(startTime)
		rate := 0.0
		if duration.Seconds() > 0 {
			rate = float64(totalRecords) / duration.Seconds()
		}
		logger.Infof("Window done for %s: %d records. Total: %d. Rate: %.2f rec/sec. Cursor: %s",
			def.Name, len(records), totalRecords, rate, windowEnd.Format(TimeLayout))

		cursor = windowEnd
	}

	logger.Infof("Stream %s finished. Requests: %d, Records: %d", def.Name, requests, totalRecords)
	return nil
}

// startCursor resolves where the sync begins: the stored bookmark wins,
// then the configured start_date, then a 7-day lookback.
func (p *Pipeline) startCursor(def StreamDef, now time.Time) (time.Time, error) {
	if bm, ok := p.State.Bookmark(def.Name, def.ReplicationKey); ok {
		t, err := utils.ParseDateTime(bm)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid bookmark for stream %s: %w", def.Name, err)
		}
		return t.UTC(), nil
	}
	if p.Settings.StartDate != "" {
		t, err := utils.ParseDateTime(p.Settings.StartDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid start_date: %w", err)
		}
		return t.UTC(), nil
	}
	return now.AddDate(0, 0, -7), nil
}
