package containerconfig

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchema = `{
  "type": "object",
  "description": "Configuration for the containerd daemon's hosted containers and ambient services.",
  "properties": {
    "addr": { "type": "string" },
    "rbtree": {
      "type": "object",
      "properties": { "n": { "type": "integer", "minimum": 2 } },
      "required": ["n"]
    },
    "avltree": {
      "type": "object",
      "properties": { "n": { "type": "integer", "minimum": 2 } },
      "required": ["n"]
    },
    "hashtable": {
      "type": "object",
      "properties": {
        "n": { "type": "integer", "minimum": 2 },
        "b": { "type": "integer", "minimum": 2 }
      },
      "required": ["n", "b"]
    },
    "hashset": {
      "type": "object",
      "properties": {
        "n": { "type": "integer", "minimum": 2 },
        "b": { "type": "integer", "minimum": 2 }
      },
      "required": ["n", "b"]
    },
    "deque": {
      "type": "object",
      "properties": { "n": { "type": "integer", "minimum": 2 } },
      "required": ["n"]
    },
    "critbit": {
      "type": "object",
      "properties": {
        "ni": { "type": "integer", "minimum": 2 },
        "nl": { "type": "integer", "minimum": 1 }
      },
      "required": ["ni", "nl"]
    },
    "checkpoint": {
      "type": "object",
      "properties": {
        "interval": { "type": "string" },
        "directory": { "type": "string" },
        "s3": {
          "type": "object",
          "properties": {
            "bucket": { "type": "string" },
            "prefix": { "type": "string" },
            "region": { "type": "string" }
          },
          "required": ["bucket"]
        }
      }
    },
    "nats": {
      "type": "object",
      "properties": {
        "address": { "type": "string" },
        "subject": { "type": "string" }
      }
    },
    "gops": { "type": "boolean" },
    "rate-limit-per-second": { "type": "number", "exclusiveMinimum": 0 }
  }
}`

// Validate checks a raw JSON configuration document against configSchema,
// matching internal/config.Validate's compile-then-validate sequence.
func Validate(instance json.RawMessage) error {
	sch, err := jsonschema.CompileString("containerd-config.schema.json", configSchema)
	if err != nil {
		return fmt.Errorf("containerconfig: compiling schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("containerconfig: invalid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("containerconfig: %w", err)
	}
	return nil
}
