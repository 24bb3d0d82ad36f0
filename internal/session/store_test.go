package session

import (
	"sync"
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore()
	sess := st.Create()

	if sess.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	status, result, errMsg := sess.Snapshot()
	if status != StatusRunning {
		t.Errorf("expected running, got %s", status)
	}
	if result != nil || errMsg != "" {
		t.Error("new session should have no result or error")
	}

	got, ok := st.Get(sess.ID)
	if !ok {
		t.Fatal("expected to find session")
	}
	if got.ID != sess.ID {
		t.Errorf("expected id %s, got %s", sess.ID, got.ID)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	st := NewStore()
	if _, ok := st.Get("nonexistent"); ok {
		t.Fatal("expected not found")
	}
}

func TestStore_Complete(t *testing.T) {
	st := NewStore()
	sess := st.Create()

	st.Complete(sess.ID, map[string]int{"hotspotsFound": 42})

	status, result, errMsg := sess.Snapshot()
	if status != StatusCompleted {
		t.Errorf("expected completed, got %s", status)
	}
	if result == nil {
		t.Error("expected a result")
	}
	if errMsg != "" {
		t.Errorf("expected no error, got %q", errMsg)
	}
}

func TestStore_Fail(t *testing.T) {
	st := NewStore()
	sess := st.Create()

	st.Fail(sess.ID, "no imagery found")

	status, result, errMsg := sess.Snapshot()
	if status != StatusFailed {
		t.Errorf("expected failed, got %s", status)
	}
	if result != nil {
		t.Error("failed session should have no result")
	}
	if errMsg != "no imagery found" {
		t.Errorf("expected diagnostic, got %q", errMsg)
	}
}

func TestStore_TerminalIsIdempotent(t *testing.T) {
	st := NewStore()
	sess := st.Create()

	st.Complete(sess.ID, "first")
	st.Complete(sess.ID, "second")
	st.Fail(sess.ID, "late failure")

	status, result, _ := sess.Snapshot()
	if status != StatusCompleted {
		t.Errorf("terminal state reverted: %s", status)
	}
	if result != "first" {
		t.Errorf("second terminal write overwrote the first: %v", result)
	}
}

func TestStore_TerminalUnknownIDIsNoop(t *testing.T) {
	st := NewStore()
	// Must not panic.
	st.Complete("nonexistent", nil)
	st.Fail("nonexistent", "boom")
}

func TestStore_Delete(t *testing.T) {
	st := NewStore()
	sess := st.Create()
	st.Delete(sess.ID)

	if _, ok := st.Get(sess.ID); ok {
		t.Fatal("expected session to be gone")
	}
	if st.Len() != 0 {
		t.Errorf("expected empty store, got %d", st.Len())
	}
}

func TestStore_Sweep(t *testing.T) {
	st := NewStore()
	running := st.Create()
	done := st.Create()
	st.Complete(done.ID, "ok")

	// Nothing is old enough yet.
	if n := st.Sweep(time.Hour); n != 0 {
		t.Errorf("expected 0 swept, got %d", n)
	}

	// Zero retention sweeps everything already terminal.
	if n := st.Sweep(0); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if _, ok := st.Get(done.ID); ok {
		t.Error("terminal session should be swept")
	}
	if _, ok := st.Get(running.ID); !ok {
		t.Error("running session must never be swept")
	}
}

func TestStore_ConcurrentSessions(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := st.Create()
			ids[i] = sess.ID
			sess.Log().Appendf("session %d", i)
			if i%2 == 0 {
				st.Complete(sess.ID, i)
			} else {
				st.Fail(sess.ID, "odd")
			}
		}(i)
	}
	wg.Wait()

	if st.Len() != 50 {
		t.Fatalf("expected 50 sessions, got %d", st.Len())
	}
	for i, id := range ids {
		sess, ok := st.Get(id)
		if !ok {
			t.Fatalf("session %d missing", i)
		}
		status, _, _ := sess.Snapshot()
		if !status.Terminal() {
			t.Errorf("session %d not terminal", i)
		}
	}
}

func TestSession_Cancel(t *testing.T) {
	st := NewStore()
	sess := st.Create()

	if sess.Cancelled() {
		t.Fatal("new session should not be cancelled")
	}
	sess.Cancel()
	if !sess.Cancelled() {
		t.Fatal("expected cancelled flag set")
	}
}
