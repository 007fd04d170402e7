package interp

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/kr/pretty"

	"loda/internal/mem"
)

// WriterDebugSink is the default DebugSink: it pretty-prints the current
// memory state to w whenever a DBG operation executes.
type WriterDebugSink struct {
	W io.Writer
}

func (s WriterDebugSink) Debug(runID uuid.UUID, pc int, m *mem.Memory) {
	fmt.Fprintf(s.W, "[dbg %s pc=%d] %s\n", runID, pc, pretty.Sprint(m))
}
