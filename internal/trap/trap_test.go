package trap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcode_String(t *testing.T) {
	assert.Equal(t, "PULL_EVENTS", OP_PULL_EVENTS.String())
	assert.Equal(t, "Opcode(0x7)", Opcode(7).String())
}

func TestDirect_RunsHandlerInline(t *testing.T) {
	var seen Opcode
	inv := Direct{Handler: HandlerFunc(func(req *Request) {
		seen = req.Op
		req.Args[A0] = 42
	})}
	req := &Request{Op: OP_INIT}
	inv.Invoke(req)
	assert.Equal(t, OP_INIT, seen)
	assert.Equal(t, uint32(42), req.Args[A0])
}

func TestRendezvous_ArgumentWritebackVisibleAfterReturn(t *testing.T) {
	r := NewRendezvous()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- r.Serve(ctx, HandlerFunc(func(req *Request) {
			req.Args[A0] = req.Args[A2] + 1
			req.Args[A1] = req.Args[A3] * 2
		}))
	}()

	for i := range uint32(10) {
		req := &Request{Op: OP_PULL_EVENTS, Args: [4]uint32{0, 0, i, i}}
		r.Invoke(req)
		require.Equal(t, i+1, req.Args[A0])
		require.Equal(t, i*2, req.Args[A1])
	}

	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRendezvous_GuestBlockedWhileHostRuns(t *testing.T) {
	r := NewRendezvous()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	entered := make(chan struct{})
	go r.Serve(ctx, HandlerFunc(func(req *Request) {
		close(entered)
		<-release
	}))

	returned := make(chan struct{})
	go func() {
		r.Invoke(&Request{Op: OP_SHUTDOWN})
		close(returned)
	}()

	<-entered
	select {
	case <-returned:
		t.Fatal("Invoke returned before the handler completed")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Invoke never returned")
	}
}

func TestRendezvous_InvokeAfterServeExitPanics(t *testing.T) {
	r := NewRendezvous()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = r.Serve(ctx, HandlerFunc(func(*Request) {}))

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, ErrHostGone) {
			t.Fatalf("expected ErrHostGone panic, got %v", err)
		}
	}()
	r.Invoke(&Request{Op: OP_INIT})
}
