package singer

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
)

// Writer serializes Singer messages to a single output channel.
// A mutex keeps lines intact if streams ever emit concurrently.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{
		enc: json.NewEncoder(out),
		now: time.Now,
	}
}

func (w *Writer) WriteSchema(stream string, schema models.Schema, keyProperties, bookmarkProperties []string) error {
	if keyProperties == nil {
		keyProperties = []string{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(SchemaMessage{
		Type:               "SCHEMA",
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	})
}

func (w *Writer) WriteRecord(stream string, record map[string]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(RecordMessage{
		Type:          "RECORD",
		Stream:        stream,
		Record:        record,
		TimeExtracted: w.now().UTC().Format(time.RFC3339Nano),
	})
}

func (w *Writer) WriteState(value map[string]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(StateMessage{Type: "STATE", Value: value})
}
