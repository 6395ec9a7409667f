package daemon

import (
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// statsAvroSchema describes a single container's Stats() record, the
// interchange format github.com/linkedin/goavro/v2 (de)serializes against —
// an alternate export encoding for operators who want to pipe a container's
// introspection data into an Avro-consuming pipeline rather than the raw
// little-endian Snapshot layout, grounded in the teacher's own Avro usage in
// pkg/metricstore/avroHelper.go.
const statsAvroSchema = `{
  "type": "record",
  "name": "ContainerStats",
  "fields": [
    {"name": "kind", "type": "string"},
    {"name": "len", "type": "int"},
    {"name": "capacity", "type": "int"},
    {"name": "bumpIndex", "type": "int"},
    {"name": "freeListLen", "type": "int"}
  ]
}`

// ExportAvro encodes every hosted container's current Stats() as Avro
// binary records, one per container kind.
func (d *Daemon) ExportAvro() ([][]byte, error) {
	codec, err := goavro.NewCodec(statsAvroSchema)
	if err != nil {
		return nil, fmt.Errorf("export: compiling avro schema: %w", err)
	}
	records := make([][]byte, 0, len(allKinds))
	for _, kind := range allKinds {
		stats := d.Stats(kind)
		native := map[string]any{
			"kind":        string(kind),
			"len":         int32(stats.Len),
			"capacity":    int32(stats.Capacity),
			"bumpIndex":   int32(stats.BumpIndex),
			"freeListLen": int32(stats.FreeListLen),
		}
		binary, err := codec.BinaryFromNative(nil, native)
		if err != nil {
			return nil, fmt.Errorf("export: encoding %s: %w", kind, err)
		}
		records = append(records, binary)
	}
	return records, nil
}
