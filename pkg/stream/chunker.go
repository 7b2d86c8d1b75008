package stream

import "strings"

// SetupReady reports whether text contains a complete scene header: one
// LOC:, one CHA: and one STP: line, each with a non-empty payload and each
// terminated by a newline. A directive whose prefix has arrived but whose
// payload (or trailing newline) has not does not count.
func SetupReady(text string) bool {
	idx := strings.LastIndexByte(text, '\n')
	if idx < 0 {
		return false
	}

	var haveLoc, haveCha, haveStp bool
	for _, line := range strings.Split(text[:idx], "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "LOC:"):
			haveLoc = haveLoc || strings.TrimSpace(line[4:]) != ""
		case strings.HasPrefix(line, "CHA:"):
			haveCha = haveCha || strings.TrimSpace(line[4:]) != ""
		case strings.HasPrefix(line, "STP:"):
			haveStp = haveStp || strings.TrimSpace(line[4:]) != ""
		}
	}
	return haveLoc && haveCha && haveStp
}

// Chunker frames raw upstream text into stream records. Feed emits a chunk
// record per slice plus, exactly once, a setup_ready record as soon as the
// accumulated text forms a complete scene header. The setup_ready record
// follows the chunk that completed the header and carries the cumulative
// text, so a consumer replaying records in order never sees header content
// twice.
type Chunker struct {
	raw       strings.Builder
	setupSent bool
}

// Feed accumulates an incremental slice and returns the records it yields.
func (c *Chunker) Feed(text string) []Record {
	c.raw.WriteString(text)
	records := []Record{{Type: RecordChunk, Text: text}}

	if !c.setupSent && SetupReady(c.raw.String()) {
		c.setupSent = true
		records = append(records, Record{Type: RecordSetupReady, Text: c.raw.String()})
	}
	return records
}

// Done returns the terminal record carrying the full accumulated text.
func (c *Chunker) Done() Record {
	return Record{Type: RecordDone, Text: c.raw.String()}
}

// Fail returns a terminal error record.
func (c *Chunker) Fail(err error) Record {
	return Record{Type: RecordError, Err: err.Error()}
}

// Text returns the accumulated raw text.
func (c *Chunker) Text() string { return c.raw.String() }

// SetupSent reports whether the setup_ready record has been emitted.
func (c *Chunker) SetupSent() bool { return c.setupSent }
