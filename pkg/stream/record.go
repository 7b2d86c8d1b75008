// Package stream turns an incrementally arriving AI-generated script into
// playback: it frames raw text into typed records, detects when enough of
// the scene header has arrived to start playing, and feeds complete lines to
// the playback controller while the script is still growing.
package stream

// RecordType tags a stream record.
type RecordType string

const (
	// RecordSetupReady marks the first point at which the accumulated text
	// contains a complete scene header (LOC, CHA and STP lines with real
	// payloads). Text carries the cumulative script so far.
	RecordSetupReady RecordType = "setup_ready"
	// RecordChunk carries an incremental slice of raw script text.
	RecordChunk RecordType = "chunk"
	// RecordDone is terminal; Text carries the final full script.
	RecordDone RecordType = "done"
	// RecordError is terminal; Err carries the failure reason.
	RecordError RecordType = "error"
)

// Record is one framed event of a story stream.
type Record struct {
	Type RecordType `json:"type"`
	Text string     `json:"text,omitempty"`
	Err  string     `json:"error,omitempty"`
}
