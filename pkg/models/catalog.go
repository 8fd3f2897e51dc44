package models

import "encoding/json"

// Catalog represents the discoverable output of the tap: one entry per
// stream with its JSON schema and replication settings.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

type CatalogEntry struct {
	Stream            string   `json:"stream"`
	TapStreamID       string   `json:"tap_stream_id"`
	Schema            Schema   `json:"schema"`
	KeyProperties     []string `json:"key_properties"`
	ReplicationKey    string   `json:"replication_key,omitempty"`
	ReplicationMethod string   `json:"replication_method"`
}

// Schema is a minimal JSON schema: object type with typed properties.
type Schema struct {
	Type       []string            `json:"type"`
	Properties map[string]Property `json:"properties"`
}

type Property struct {
	Type   []string `json:"type"`
	Format string   `json:"format,omitempty"`
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// HasStream reports whether the catalog selects the given stream name.
func (c *Catalog) HasStream(name string) bool {
	for _, e := range c.Streams {
		if e.Stream == name || e.TapStreamID == name {
			return true
		}
	}
	return false
}
