package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// tradeServer accepts WebSocket connections, emits one trade event and
// closes, which is enough to drive a full connect/read/drop cycle.
func tradeServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = c.WriteMessage(websocket.TextMessage,
			[]byte(`{"e":"trade","s":"BTCUSDT","p":"100.5","T":1750000000000}`))
		time.Sleep(20 * time.Millisecond)
		_ = c.Close()
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestReadParsesTradeEvents(t *testing.T) {
	srv := tradeServer(t)
	defer srv.Close()

	s := New(wsURL(srv), "btcusdt", 10*time.Millisecond, time.Minute)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	samples, errs := s.Read(ctx)

	select {
	case got := <-samples:
		if got.Price != 100.5 || got.Symbol != "BTCUSDT" || got.Source != "binance" {
			t.Fatalf("unexpected sample %+v", got)
		}
		if got.Timestamp.UnixMilli() != 1750000000000 {
			t.Fatalf("timestamp: got %v", got.Timestamp)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no sample received")
	}

	// The server closes; the read loop must surface the drop.
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatalf("no error surfaced after connection drop")
	}
}

func TestReadStopsPingerWithReader(t *testing.T) {
	srv := tradeServer(t)
	defer srv.Close()

	s := New(wsURL(srv), "btcusdt", time.Millisecond, 5*time.Millisecond)
	ctx := context.Background()

	// Repeated connect/read/drop cycles with a never-canceled context
	// must not accumulate ping goroutines.
	var base int
	for i := 0; i < 5; i++ {
		if err := s.Connect(ctx); err != nil {
			t.Fatalf("cycle %d connect: %v", i, err)
		}
		samples, errs := s.Read(ctx)
		for range samples {
		}
		for range errs {
		}
		_ = s.Close()

		time.Sleep(50 * time.Millisecond)
		if i == 0 {
			base = runtime.NumGoroutine()
		}
	}

	if g := runtime.NumGoroutine(); g > base+2 {
		t.Fatalf("goroutines grew across reconnect cycles: %d -> %d", base, g)
	}
}
