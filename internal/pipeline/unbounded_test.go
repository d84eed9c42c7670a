package pipeline

import (
	"runtime"
	"testing"
	"time"
)

func TestUnboundedPreservesFIFOOrder(t *testing.T) {
	q := NewUnbounded[int]()
	for i := 0; i < 50; i++ {
		q.Send(i)
	}
	for i := 0; i < 50; i++ {
		select {
		case got := <-q.Recv():
			if got != i {
				t.Fatalf("Recv() = %d, want %d", got, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
}

func TestUnboundedSendNeverBlocks(t *testing.T) {
	q := NewUnbounded[int]()
	// Far more than the internal channel buffers; Send must never block
	// even though nothing is draining Recv().
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			q.Send(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Send() appears to have blocked")
	}
}

func TestUnboundedLenTracksDepth(t *testing.T) {
	q := NewUnbounded[int]()
	q.Send(1)
	q.Send(2)
	q.Send(3)

	deadline := time.Now().Add(time.Second)
	for q.Len() < 3 && time.Now().Before(deadline) {
		runtime.Gosched()
	}
	if q.Len() < 3 {
		t.Fatalf("Len() = %d, want >= 3", q.Len())
	}

	<-q.Recv()
	deadline = time.Now().Add(time.Second)
	for q.Len() > 2 && time.Now().Before(deadline) {
		runtime.Gosched()
	}
	if q.Len() > 2 {
		t.Fatalf("Len() = %d, want <= 2 after one Recv", q.Len())
	}
}
