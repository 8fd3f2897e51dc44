package tap

import (
	"context"
	"net/url"
)

// Stream produces typed records for one date window of the sync.
type Stream interface {
	Def() StreamDef
	Extract(ctx context.Context, window Window) ([]map[string]interface{}, error)
}

// Exporter is the client surface a stream needs. Satisfied by *Client.
type Exporter interface {
	Export(ctx context.Context, path string, params url.Values) ([]map[string]string, error)
}
