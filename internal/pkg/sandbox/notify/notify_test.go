package notify

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sylabs/umlboxd/internal/pkg/sandbox"
	"github.com/sylabs/umlboxd/internal/pkg/sylog"
)

func testLogger(t *testing.T) *sylog.Logger {
	t.Helper()
	log, err := sylog.New(false, "")
	if err != nil {
		t.Fatalf("building test logger: %s", err)
	}
	return log
}

// TestSendFinished covers scenario S1's callback fields.
func TestSendFinished(t *testing.T) {
	received := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		received <- r.Form
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, "tok-abc", testLogger(t))
	code := 0
	n.Send(sandbox.Outcome{
		Result:   sandbox.ResultFinished,
		ExitCode: &code,
		Stdout:   "hello\n",
	})

	select {
	case form := <-received:
		if form.Get("status") != "finished" {
			t.Fatalf("expected status finished, got %q", form.Get("status"))
		}
		if form.Get("exit_code") != "0" {
			t.Fatalf("expected exit_code 0, got %q", form.Get("exit_code"))
		}
		if form.Get("stdout") != "hello\n" {
			t.Fatalf("expected stdout hello, got %q", form.Get("stdout"))
		}
		if form.Get("stderr") != "" || form.Get("test_output") != "" {
			t.Fatalf("expected empty stderr/test_output, got %+v", form)
		}
		if form.Get("token") != "tok-abc" {
			t.Fatalf("expected token to be echoed, got %q", form.Get("token"))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification was never delivered")
	}
}

// TestSendOmitsExitCodeWhenNil covers scenario S3/S4's "no exit_code field".
func TestSendOmitsExitCodeWhenNil(t *testing.T) {
	received := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		received <- r.Form
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, "", testLogger(t))
	n.Send(sandbox.Outcome{Result: sandbox.ResultTimeout})

	select {
	case form := <-received:
		if _, ok := form["exit_code"]; ok {
			t.Fatalf("expected exit_code field to be omitted, got %+v", form)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification was never delivered")
	}
}

// TestSendSwallowsNetworkErrors covers spec.md §4.4: network errors are
// logged and swallowed, never surfaced to the caller.
func TestSendSwallowsNetworkErrors(t *testing.T) {
	n := New("http://127.0.0.1:1/unreachable", "", testLogger(t))
	n.Send(sandbox.Outcome{Result: sandbox.ResultFailed})
}
