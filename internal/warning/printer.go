package warning

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMaxWarnings is the printer's initial max warning count
const DefaultMaxWarnings = 100

// Printer logs warnings through logrus until the max count is reached
type Printer struct {
	mu     sync.Mutex
	log    *logrus.Logger
	ignore ignoreSet
	max    int
	raise  bool
	count  int
}

// NewPrinter creates a Printer writing to logger (logrus.New() when nil)
func NewPrinter(logger *logrus.Logger) *Printer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Printer{log: logger, max: DefaultMaxWarnings}
}

// Emit logs msg unless kind is ignored or the printer is silenced
func (p *Printer) Emit(kind Kind, msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ignore.isIgnored(kind) || p.max == 0 {
		return nil
	}
	if p.raise {
		return &Error{Kind: kind, Message: msg}
	}
	if p.max > 0 && p.count > p.max {
		return nil
	}

	p.log.WithFields(logrus.Fields{
		"kind":  kind.String(),
		"count": p.count,
	}).Warn(msg)
	if p.max > 0 && p.count == p.max {
		p.log.WithField("max", p.max).Warn("maximum number of warnings reached, further warnings are suppressed (0 prints none, -1 prints all)")
	}
	p.count++
	return nil
}

// Count returns how many warnings have been logged so far
func (p *Printer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *Printer) IsIgnored(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ignore.isIgnored(kind)
}

func (p *Printer) SetIgnoredWarning(kind Kind, ignore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ignore.setIgnored(kind, ignore)
}

func (p *Printer) MaxWarningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max
}

func (p *Printer) SetMaxWarningCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.max = n
}

func (p *Printer) RaiseWarnings() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raise
}

func (p *Printer) SetRaiseWarnings(raise bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raise = raise
}
