package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// recordingMetadataSchema validates the metadata form field of an upload
// request before it reaches the pipeline.
const recordingMetadataSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string", "maxLength": 200},
    "description": {"type": "string", "maxLength": 5000},
    "tags": {"type": "array", "items": {"type": "string"}, "maxItems": 50},
    "categoryId": {"type": "string"},
    "privacy": {"type": "string", "enum": ["private", "unlisted", "public"]},
    "suiteId": {"type": "string"},
    "suiteName": {"type": "string", "maxLength": 200}
  }
}`

type recordingMetadataRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"categoryId"`
	Privacy     string   `json:"privacy"`
	SuiteID     string   `json:"suiteId"`
	SuiteName   string   `json:"suiteName"`
}

var metadataSchemaLoader = gojsonschema.NewStringLoader(recordingMetadataSchema)

func parseRecordingMetadata(raw []byte) (recordingMetadataRequest, error) {
	var req recordingMetadataRequest
	if len(raw) == 0 {
		return req, nil
	}

	result, err := gojsonschema.Validate(metadataSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return req, fmt.Errorf("metadata is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return req, fmt.Errorf("invalid metadata: %s", result.Errors()[0].String())
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode metadata: %w", err)
	}

	return req, nil
}
