package js

import (
	"strings"
	"sync"
)

// outputCapture collects console lines up to a byte cap. Further writes
// are discarded and the output is marked truncated.
type outputCapture struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func newCapture(limit int) *outputCapture {
	return &outputCapture{limit: limit}
}

func (c *outputCapture) WriteLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.truncated {
		return
	}
	if c.buf.Len()+len(line)+1 > c.limit {
		c.truncated = true
		c.buf.WriteString("... output truncated\n")
		return
	}
	c.buf.WriteString(line)
	c.buf.WriteByte('\n')
}

func (c *outputCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
