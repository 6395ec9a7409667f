package daemon

import (
	"fmt"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// EncodeLineProtocol renders every hosted container's current Stats() as
// InfluxDB line-protocol points, one per container kind, for operators who
// run InfluxDB rather than Prometheus — the daemon's alternate metrics sink,
// mirroring the teacher's own dual Prometheus/InfluxDB support in
// internal/metricdata.
func (d *Daemon) EncodeLineProtocol(now time.Time) ([]byte, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Nanosecond)
	for _, kind := range allKinds {
		stats := d.Stats(kind)
		enc.StartLine("container_stats")
		enc.AddTag("kind", string(kind))
		enc.AddField("len", lineprotocol.MustNewValue(int64(stats.Len)))
		enc.AddField("capacity", lineprotocol.MustNewValue(int64(stats.Capacity)))
		enc.AddField("bump_index", lineprotocol.MustNewValue(int64(stats.BumpIndex)))
		enc.AddField("free_list_len", lineprotocol.MustNewValue(int64(stats.FreeListLen)))
		enc.EndLine(now)
		if err := enc.Err(); err != nil {
			return nil, fmt.Errorf("lineprotocol: encoding %s: %w", kind, err)
		}
	}
	return enc.Bytes(), nil
}
