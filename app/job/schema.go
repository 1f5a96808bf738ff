package job

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Document is the schema form of the jobs document, a map of job name to job record
type Document map[string]recordSchema

type recordSchema struct {
	Name        string      `json:"name" jsonschema:"minLength=1,description=unique job name"`
	Source      string      `json:"source" jsonschema:"minLength=1,description=backup source"`
	Destination string      `json:"destination" jsonschema:"minLength=1,description=backup destination"`
	Time        string      `json:"time,omitempty" jsonschema:"pattern=^([01][0-9]|2[0-3]):[0-5][0-9]$,description=daily start time HH:MM"`
	Enabled     bool        `json:"enabled,omitempty"`
	Days        daysSchema  `json:"days,omitempty"`
	Flags       flagsSchema `json:"flags,omitempty"`
}

type daysSchema struct {
	Sunday    bool `json:"sunday,omitempty"`
	Monday    bool `json:"monday,omitempty"`
	Tuesday   bool `json:"tuesday,omitempty"`
	Wednesday bool `json:"wednesday,omitempty"`
	Thursday  bool `json:"thursday,omitempty"`
	Friday    bool `json:"friday,omitempty"`
	Saturday  bool `json:"saturday,omitempty"`
}

type flagsSchema struct {
	Compress         bool   `json:"compress,omitempty"`
	Incremental      bool   `json:"incremental,omitempty"`
	Recursive        bool   `json:"recursive,omitempty"`
	FollowLinks      bool   `json:"follow_links,omitempty"`
	DeleteExtraneous bool   `json:"delete_extraneous,omitempty"`
	Compression      string `json:"compression,omitempty" jsonschema:"enum=none,enum=gzip,enum=zstd"`
}

// Schema generates json schema of the jobs document
func Schema() ([]byte, error) {
	schema := jsonschema.Reflect(Document{})
	schema.Title = "rbackup jobs document"
	schema.Description = "Schema for rbackup jobs file"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
