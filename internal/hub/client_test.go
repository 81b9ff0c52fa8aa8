package hub

import (
	"fmt"
	"testing"

	"github.com/mwarren/mexc-relay/internal/state"
)

// drain empties the client's send queue and returns its contents in order.
func drain(c *Client) []string {
	var out []string
	for {
		select {
		case data := <-c.send:
			out = append(out, string(data))
		default:
			return out
		}
	}
}

func TestSendEvictsOldestOnOverflow(t *testing.T) {
	h := NewHub(state.New(10), nil)
	c := NewClient(nil, h, nil)

	// Fill the buffer completely, then push two more.
	for i := 0; i < sendBufferSize+2; i++ {
		if err := c.Send([]byte(fmt.Sprintf("q%d", i))); err != nil {
			t.Fatalf("Send q%d failed: %v", i, err)
		}
	}

	queued := drain(c)
	if len(queued) != sendBufferSize {
		t.Fatalf("queued = %d messages, want full buffer of %d", len(queued), sendBufferSize)
	}

	// The two oldest entries were evicted; the newest survived.
	if queued[0] != "q2" {
		t.Errorf("oldest queued = %q, want q2 (q0 and q1 evicted)", queued[0])
	}
	newest := fmt.Sprintf("q%d", sendBufferSize+1)
	if queued[len(queued)-1] != newest {
		t.Errorf("newest queued = %q, want %q (incoming message must never be the one dropped)",
			queued[len(queued)-1], newest)
	}
}

func TestSendAfterCloseReportsClosed(t *testing.T) {
	h := NewHub(state.New(10), nil)
	c := NewClient(nil, h, nil)

	c.Close()
	c.Close() // idempotent

	if err := c.Send([]byte("q")); err != ErrSubscriberClosed {
		t.Errorf("Send after Close = %v, want ErrSubscriberClosed", err)
	}
}
