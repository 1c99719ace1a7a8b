package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type scriptedTransport struct {
	errs  []error
	calls int
	paths []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	s.paths = append(s.paths, req.URL.Path)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestBuildHTTPClientOutlastsLongPoll(t *testing.T) {
	c := BuildHTTPClient(50 * time.Second)
	if c.Timeout <= 55*time.Second {
		t.Fatalf("client timeout %v would cut long polls", c.Timeout)
	}
	if BuildHTTPClient(0).Timeout != defaultClientTimeout {
		t.Fatal("default client timeout changed")
	}
}

func TestRedialTransportRetriesDialFailures(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	base := &scriptedTransport{errs: []error{dial, dial}}
	rt := &redialTransport{base: base, retries: 2}

	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader(`{"chat_id":1}`))
	resp, err := rt.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("RoundTrip = %v, %v", resp, err)
	}
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestRedialTransportLeavesOtherErrors(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}
	base := &scriptedTransport{errs: []error{reset}}
	rt := &redialTransport{base: base, retries: 2}

	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("{}"))
	if _, err := rt.RoundTrip(req); !errors.Is(err, reset) {
		t.Fatalf("err = %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("a request that may have reached Telegram was repeated %d times", base.calls)
	}
}
