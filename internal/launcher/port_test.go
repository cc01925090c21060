package launcher

import (
	"context"
	"net"
	"os"
	"testing"
	"time"
)

// listenLocal grabs an ephemeral port on 127.0.0.1 and returns the listener
// and its port number.
func listenLocal(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func TestIsPortAvailable(t *testing.T) {
	ln, port := listenLocal(t)

	if IsPortAvailable("127.0.0.1", port) {
		t.Error("port should not be available while in use")
	}

	ln.Close()

	if !IsPortAvailable("127.0.0.1", port) {
		t.Error("port should be available after closing listener")
	}
}

func TestListenerPIDs_FindsSelf(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	pids, err := ListenerPIDs(port)
	if err != nil {
		t.Skipf("connection enumeration not permitted here: %v", err)
	}

	self := os.Getpid()
	found := false
	for _, pid := range pids {
		if pid == self {
			found = true
		}
	}
	if !found {
		t.Errorf("ListenerPIDs(%d) = %v, should include own PID %d", port, pids, self)
	}
}

func TestListenerPIDs_EmptyForFreePort(t *testing.T) {
	ln, port := listenLocal(t)
	ln.Close()

	pids, err := ListenerPIDs(port)
	if err != nil {
		t.Skipf("connection enumeration not permitted here: %v", err)
	}
	if len(pids) != 0 {
		t.Errorf("free port should have no listeners, got %v", pids)
	}
}

func TestFreePort_NeverKillsSelf(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	// Our own process holds the port; FreePort must skip it and return.
	if err := FreePort(port); err != nil {
		t.Skipf("connection enumeration not permitted here: %v", err)
	}

	if !IsProcessAlive(os.Getpid()) {
		t.Fatal("unreachable")
	}
	// Listener must still work.
	if IsPortAvailable("127.0.0.1", port) {
		t.Error("own listener should survive FreePort")
	}
}

func TestFreePort_EmptyScanIsSuccess(t *testing.T) {
	ln, port := listenLocal(t)
	ln.Close()

	if err := FreePort(port); err != nil {
		t.Skipf("connection enumeration not permitted here: %v", err)
	}
}

func TestWaitUntilBindable_Immediate(t *testing.T) {
	ln, port := listenLocal(t)
	ln.Close()

	if err := WaitUntilBindable(context.Background(), "127.0.0.1", port, time.Second); err != nil {
		t.Fatalf("WaitUntilBindable on a free port should return immediately: %v", err)
	}
}

func TestWaitUntilBindable_BecomesFree(t *testing.T) {
	ln, port := listenLocal(t)

	go func() {
		time.Sleep(300 * time.Millisecond)
		ln.Close()
	}()

	if err := WaitUntilBindable(context.Background(), "127.0.0.1", port, 3*time.Second); err != nil {
		t.Fatalf("WaitUntilBindable should succeed once the listener closes: %v", err)
	}
}

func TestWaitUntilBindable_Timeout(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	if err := WaitUntilBindable(context.Background(), "127.0.0.1", port, 500*time.Millisecond); err == nil {
		t.Fatal("WaitUntilBindable should time out while the port is held")
	}
}

func TestWaitUntilBindable_ContextCanceled(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitUntilBindable(ctx, "127.0.0.1", port, 5*time.Second); err == nil {
		t.Fatal("WaitUntilBindable should honor context cancellation")
	}
}
