package warning

import "sync"

// Record is one warning seen by a Collector
type Record struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Ignored bool   `json:"ignored"`
}

// Collector keeps every emitted warning in memory, including ignored ones.
// It only raises when RaiseWarnings is set and the kind is not ignored.
type Collector struct {
	mu      sync.Mutex
	ignore  ignoreSet
	max     int
	raise   bool
	records []Record
}

// NewCollector creates an empty Collector with an unlimited max count
func NewCollector() *Collector {
	return &Collector{max: -1}
}

func (c *Collector) Emit(kind Kind, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ignored := c.ignore.isIgnored(kind)
	c.records = append(c.records, Record{Kind: kind, Message: msg, Ignored: ignored})
	if c.raise && !ignored {
		return &Error{Kind: kind, Message: msg}
	}
	return nil
}

// All returns a copy of the collected records in emission order
func (c *Collector) All() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Kinds returns the kinds of non-ignored records in emission order
func (c *Collector) Kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Kind
	for _, r := range c.records {
		if !r.Ignored {
			out = append(out, r.Kind)
		}
	}
	return out
}

// CountOf returns how many non-ignored records of kind were collected
func (c *Collector) CountOf(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Kind == kind && !r.Ignored {
			n++
		}
	}
	return n
}

// Reset drops all collected records
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

func (c *Collector) IsIgnored(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ignore.isIgnored(kind)
}

func (c *Collector) SetIgnoredWarning(kind Kind, ignore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignore.setIgnored(kind, ignore)
}

func (c *Collector) MaxWarningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

func (c *Collector) SetMaxWarningCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.max = n
}

func (c *Collector) RaiseWarnings() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raise
}

func (c *Collector) SetRaiseWarnings(raise bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raise = raise
}
