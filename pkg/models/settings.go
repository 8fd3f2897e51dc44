package models

import "encoding/json"

// Settings represents the tap configuration, typically loaded from a
// Singer-style config.json file with environment variable fallbacks.
type Settings struct {
	ApplicationID string `json:"application_id"`
	Token         string `json:"token"`
	StartDate     string `json:"start_date,omitempty"`
	ChunkDays     int    `json:"chunk_days,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	APIURL        string `json:"api_url,omitempty"`

	// State persistence. Backend is "file" (default) or "mongo".
	StateBackend string `json:"state_backend,omitempty"`
	StatePath    string `json:"state_path,omitempty"`
	MongoURI     string `json:"mongo_uri,omitempty"`
}

func LoadSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
