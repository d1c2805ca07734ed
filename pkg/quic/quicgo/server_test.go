package quicgo

import (
	"sync"
	"testing"

	"github.com/quic-go/quic-go"
)

func newTestQuicServer() *quicServer {
	return &quicServer{
		tracerToCid: make(map[uint64]quic.ConnectionID),
	}
}

func TestTracedCidStoreAndTake(t *testing.T) {
	q := newTestQuicServer()

	cid := quic.ConnectionIDFromBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	q.storeTracedCid(42, cid)

	if got := q.takeTracedCid(42); got != cid {
		t.Fatalf("expected %s, got %s", cid, got)
	}

	// the entry is consumed, a second take yields the zero id
	if got := q.takeTracedCid(42); got.Len() != 0 {
		t.Fatalf("expected entry to be dropped, got %s", got)
	}
	if len(q.tracerToCid) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(q.tracerToCid))
	}
}

// tracer callbacks and connection handlers run on different goroutines, the
// race detector flags any unsynchronized map access here.
func TestTracedCidConcurrentAccess(t *testing.T) {
	q := newTestQuicServer()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		traceId := uint64(i)
		cid := quic.ConnectionIDFromBytes([]byte{byte(i), 0x01, 0x02, 0x03})

		wg.Add(2)
		go func() {
			defer wg.Done()
			q.storeTracedCid(traceId, cid)
		}()
		go func() {
			defer wg.Done()
			q.takeTracedCid(traceId)
		}()
	}
	wg.Wait()

	for id := range q.tracerToCid {
		q.takeTracedCid(id)
	}
	if len(q.tracerToCid) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(q.tracerToCid))
	}
}
