package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/poller"
)

type stubPoller struct {
	calls atomic.Int32
}

func (s *stubPoller) Poll(_ context.Context, job poller.PollJob) ([]models.StatusRecord, error) {
	s.calls.Add(1)
	if job.Device == "broken" {
		return nil, errors.New("open broken: dial timeout")
	}
	return []models.StatusRecord{
		{Device: job.Device, Pdu: models.PduInfo{PduSlot: 1}},
		{Device: job.Device, Pdu: models.PduInfo{PduSlot: 2}},
	}, nil
}

func TestWorkerPool_ForwardsRecords(t *testing.T) {
	out := make(chan models.StatusRecord, 16)
	stub := &stubPoller{}
	pool := poller.NewWorkerPool(2, stub, out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Submit(poller.PollJob{Device: "rack-a"})
	pool.Submit(poller.PollJob{Device: "broken"})
	pool.Submit(poller.PollJob{Device: "rack-b"})
	pool.Stop()
	close(out)

	got := map[string]int{}
	for rec := range out {
		got[rec.Device]++
	}
	if got["rack-a"] != 2 || got["rack-b"] != 2 {
		t.Errorf("records per device = %v, want 2 each", got)
	}
	if _, ok := got["broken"]; ok {
		t.Error("failed poll must not emit records")
	}
	if n := stub.calls.Load(); n != 3 {
		t.Errorf("Poll called %d times, want 3", n)
	}
}

func TestWorkerPool_TrySubmitFull(t *testing.T) {
	pool := poller.NewWorkerPool(1, &stubPoller{}, make(chan models.StatusRecord), nil)

	// Not started: the queue holds numWorkers*2 jobs.
	for i := 0; i < 2; i++ {
		if !pool.TrySubmit(poller.PollJob{Device: "rack-a"}) {
			t.Fatalf("TrySubmit %d rejected", i)
		}
	}
	if pool.TrySubmit(poller.PollJob{Device: "rack-a"}) {
		t.Error("TrySubmit should fail on a full queue")
	}
}

func TestWorkerPool_StopsOnCancel(t *testing.T) {
	out := make(chan models.StatusRecord) // never drained
	pool := poller.NewWorkerPool(1, &stubPoller{}, out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	pool.Submit(poller.PollJob{Device: "rack-a"})

	cancel()
	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after cancel")
	}
}
