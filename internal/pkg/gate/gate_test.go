package gate

import (
	"path/filepath"
	"testing"
	"time"
)

// TestGateSerializesAdmission covers invariant §8.6: two concurrent
// acquisitions never both proceed at once.
func TestGateSerializesAdmission(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "umlboxd.lock")
	g := New(lockPath)

	release1, err := g.Acquire()
	if err != nil {
		t.Fatalf("first Acquire: %s", err)
	}

	acquired := make(chan struct{})
	go func() {
		release2, err := g.Acquire()
		if err != nil {
			t.Errorf("second Acquire: %s", err)
			return
		}
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatalf("second Acquire should have blocked while the first lock is held")
	case <-time.After(200 * time.Millisecond):
	}

	release1()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatalf("second Acquire never proceeded after the first was released")
	}
}
