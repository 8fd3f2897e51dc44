// Package singer implements the Singer message types the tap writes to
// stdout: SCHEMA, RECORD and STATE, one JSON object per line.
package singer

import "github.com/dataflowlabs/tap-appmetrica/pkg/models"

type SchemaMessage struct {
	Type               string        `json:"type"`
	Stream             string        `json:"stream"`
	Schema             models.Schema `json:"schema"`
	KeyProperties      []string      `json:"key_properties"`
	BookmarkProperties []string      `json:"bookmark_properties,omitempty"`
}

type RecordMessage struct {
	Type          string                 `json:"type"`
	Stream        string                 `json:"stream"`
	Record        map[string]interface{} `json:"record"`
	TimeExtracted string                 `json:"time_extracted"`
}

type StateMessage struct {
	Type  string                 `json:"type"`
	Value map[string]interface{} `json:"value"`
}
