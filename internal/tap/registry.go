package tap

import "github.com/dataflowlabs/tap-appmetrica/pkg/models"

// Registry returns all streams the tap knows how to extract.
func Registry() []StreamDef {
	return []StreamDef{
		eventsStream(),
		installationsStream(),
	}
}

// BuildCatalog renders the registry as a Singer catalog for discovery.
func BuildCatalog() *models.Catalog {
	catalog := &models.Catalog{}
	for _, def := range Registry() {
		keys := def.PrimaryKeys
		if keys == nil {
			keys = []string{}
		}
		catalog.Streams = append(catalog.Streams, models.CatalogEntry{
			Stream:            def.Name,
			TapStreamID:       def.Name,
			Schema:            def.Schema,
			KeyProperties:     keys,
			ReplicationKey:    def.ReplicationKey,
			ReplicationMethod: "INCREMENTAL",
		})
	}
	return catalog
}

func eventsStream() StreamDef {
	fields := []string{
		"event_datetime",
		"event_json",
		"event_name",
		"event_receive_datetime",
		"event_receive_timestamp",
		"event_timestamp",
		"session_id",
		"installation_id",
		"appmetrica_device_id",
		"city",
		"connection_type",
		"country_iso_code",
		"device_ipv6",
		"device_locale",
		"device_manufacturer",
		"device_model",
		"device_type",
		"google_aid",
		"ios_ifa",
		"ios_ifv",
		"mcc",
		"mnc",
		"operator_name",
		"original_device_model",
		"os_name",
		"os_version",
		"profile_id",
		"windows_aid",
		"app_build_number",
		"app_package_name",
		"app_version_name",
		"application_id",
	}
	return StreamDef{
		Name:              "events",
		Path:              "/logs/v1/export/events.json",
		ReplicationKey:    "event_receive_date",
		ReplicationSource: "event_receive_datetime",
		Fields:            fields,
		Schema: buildSchema("event_receive_date", fields, map[string]models.Property{
			"event_datetime": {Type: []string{"string", "null"}, Format: "date-time"},
		}),
	}
}

func installationsStream() StreamDef {
	fields := []string{
		"install_datetime",
		"install_receive_datetime",
		"install_receive_timestamp",
		"install_timestamp",
		"installation_id",
		"appmetrica_device_id",
		"city",
		"connection_type",
		"country_iso_code",
		"device_locale",
		"device_manufacturer",
		"device_model",
		"device_type",
		"google_aid",
		"ios_ifa",
		"ios_ifv",
		"is_reinstallation",
		"match_type",
		"mcc",
		"mnc",
		"operator_name",
		"os_name",
		"os_version",
		"windows_aid",
		"app_package_name",
		"app_version_name",
		"application_id",
	}
	return StreamDef{
		Name:              "installations",
		Path:              "/logs/v1/export/installations.json",
		ReplicationKey:    "install_receive_date",
		ReplicationSource: "install_receive_datetime",
		Fields:            fields,
		Schema: buildSchema("install_receive_date", fields, map[string]models.Property{
			"install_datetime": {Type: []string{"string", "null"}, Format: "date-time"},
		}),
	}
}

// buildSchema derives a JSON schema from the field list: everything is a
// nullable string unless overridden, plus the synthetic replication key.
func buildSchema(replicationKey string, fields []string, overrides map[string]models.Property) models.Schema {
	props := make(map[string]models.Property, len(fields)+1)
	props[replicationKey] = models.Property{Type: []string{"string", "null"}, Format: "date"}
	for _, f := range fields {
		if o, ok := overrides[f]; ok {
			props[f] = o
			continue
		}
		props[f] = models.Property{Type: []string{"string", "null"}}
	}
	return models.Schema{Type: []string{"object"}, Properties: props}
}
