package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/1363V4/datastar-void/internal/render"
	"github.com/labstack/echo/v4"
)

// sseSink writes rendered fragments to one viewer's event stream in the
// datastar merge-fragments format.
type sseSink struct {
	mu       sync.Mutex
	response *echo.Response
}

func newSSESink(response *echo.Response) *sseSink {
	return &sseSink{response: response}
}

// Send writes one merge-fragments event and flushes it.
func (s *sseSink) Send(frag render.Fragment) error {
	var b strings.Builder
	b.WriteString("event: datastar-merge-fragments\n")
	if frag.Selector != "" {
		fmt.Fprintf(&b, "data: selector %s\n", frag.Selector)
	}
	if frag.Merge != render.MergeMorph {
		fmt.Fprintf(&b, "data: mergeMode %s\n", frag.Merge)
	}
	for _, line := range strings.Split(frag.HTML, "\n") {
		fmt.Fprintf(&b, "data: fragments %s\n", line)
	}
	b.WriteString("\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.response.Write([]byte(b.String())); err != nil {
		return err
	}
	s.response.Flush()
	return nil
}
