package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Notion struct {
		APIKey     string `json:"api_key"`
		DatabaseID string `json:"database_id"`
		BaseURL    string `json:"base_url"`
	} `json:"notion,omitempty"`

	Zotero struct {
		APIKey  string `json:"api_key"`
		GroupID int64  `json:"group_id"`
		BaseURL string `json:"base_url"`
	} `json:"zotero,omitempty"`

	Storage struct {
		DSN       string `json:"dsn"`
		StateFile string `json:"state_file"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Sync struct {
		PollInterval        Duration `json:"poll_interval"`
		NotesHeading        string   `json:"notes_heading"`
		OriginTag           string   `json:"origin_tag"`
		DeleteOrphanedNotes bool     `json:"delete_orphaned_notes"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Notion: Notion{
			APIKey:     jsonCfg.Notion.APIKey,
			DatabaseID: jsonCfg.Notion.DatabaseID,
			BaseURL:    jsonCfg.Notion.BaseURL,
		},
		Zotero: Zotero{
			APIKey:  jsonCfg.Zotero.APIKey,
			GroupID: jsonCfg.Zotero.GroupID,
			BaseURL: jsonCfg.Zotero.BaseURL,
		},
		Storage: Storage{
			DSN:       jsonCfg.Storage.DSN,
			StateFile: jsonCfg.Storage.StateFile,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Sync: Sync{
			PollInterval:        time.Duration(jsonCfg.Sync.PollInterval),
			NotesHeading:        jsonCfg.Sync.NotesHeading,
			OriginTag:           jsonCfg.Sync.OriginTag,
			DeleteOrphanedNotes: jsonCfg.Sync.DeleteOrphanedNotes,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
