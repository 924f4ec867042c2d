// Package sink delivers finished records to their destinations. A sink
// receives exactly one record per successful acquisition cycle; a
// skipped cycle (quorum not met) emits nothing anywhere, so every
// delivered record represents a genuinely quorum-backed measurement.
package sink

import "github.com/itohio/kuuki/pkg/record"

// Sink delivers one record per cycle.
type Sink interface {
	Emit(rec record.Record) error
	Name() string
}
