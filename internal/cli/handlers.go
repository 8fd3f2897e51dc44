package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/internal/config"
	"github.com/dataflowlabs/tap-appmetrica/internal/tap"
	"github.com/dataflowlabs/tap-appmetrica/pkg/database"
	"github.com/dataflowlabs/tap-appmetrica/pkg/logger"
	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
	"github.com/dataflowlabs/tap-appmetrica/pkg/singer"
	"github.com/dataflowlabs/tap-appmetrica/pkg/state"
	"github.com/google/uuid"
)

func runSync(opts *SyncOptions) error {
	settings, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	store, cleanup, err := newStore(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.Load()
	if err != nil {
		return err
	}

	// A --state file passed on the command line is merged on top of the
	// persisted checkpoint; the newer cursor wins either way.
	if opts.StateFile != "" {
		data, err := os.ReadFile(opts.StateFile)
		if err != nil {
			return fmt.Errorf("failed to read state file '%s': %w", opts.StateFile, err)
		}
		initial, err := state.Parse(data)
		if err != nil {
			return err
		}
		st.Merge(initial)
	}

	var catalog *models.Catalog
	if opts.CatalogFile != "" {
		data, err := os.ReadFile(opts.CatalogFile)
		if err != nil {
			return fmt.Errorf("failed to read catalog file '%s': %w", opts.CatalogFile, err)
		}
		catalog, err = models.LoadCatalog(data)
		if err != nil {
			return fmt.Errorf("failed to parse catalog file '%s': %w", opts.CatalogFile, err)
		}
	}

	selected := selectStreams(tap.Registry(), opts.Streams, catalog)
	if len(selected) == 0 {
		return errors.New("no streams selected")
	}

	client := tap.NewClient(settings)
	writer := singer.NewWriter(os.Stdout)

	runID := uuid.NewString()
	logger.Infof("Starting sync run %s for application %s (%d stream(s))",
		runID, settings.ApplicationID, len(selected))

	ctx := context.Background()
	for _, def := range selected {
		stream := &tap.LogsStream{StreamDef: def, Client: client, Settings: settings}
		pipeline := tap.NewPipeline(stream, writer, store, st, settings)
		if err := pipeline.Run(ctx); err != nil {
			return fmt.Errorf("sync of stream %s failed: %w", def.Name, err)
		}
	}

	logger.Infof("Sync run %s finished successfully.", runID)
	return nil
}

func runDiscover() error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tap.BuildCatalog())
}

func newStore(settings *models.Settings) (state.Store, func(), error) {
	if settings.StateBackend == "mongo" {
		client, err := database.ConnectMongo(settings.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		key := "tap-appmetrica:" + settings.ApplicationID
		return state.NewMongoStore(client, "tap_state", key), cleanup, nil
	}
	return state.NewFileStore(settings.StatePath), func() {}, nil
}

func selectStreams(defs []tap.StreamDef, names []string, catalog *models.Catalog) []tap.StreamDef {
	var out []tap.StreamDef
	for _, def := range defs {
		if catalog != nil && !catalog.HasStream(def.Name) {
			continue
		}
		if len(names) > 0 && !containsString(names, def.Name) {
			continue
		}
		out = append(out, def)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
