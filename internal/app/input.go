package app

import (
	"context"
	"sync"

	"ecmd/internal/console"
)

// input wraps the console so that records are read by a single pump
// goroutine. The pump keeps reading while a shell command runs, which lets
// Ctrl+C reach the command; everything else is queued and only read once
// the loop returns from dispatching the command.
type input struct {
	console.Console

	recs      chan console.Record
	running   func() bool
	interrupt func()

	mu  sync.Mutex
	err error
}

func newInput(con console.Console, running func() bool, interrupt func()) *input {
	return &input{
		Console:   con,
		recs:      make(chan console.Record, 256),
		running:   running,
		interrupt: interrupt,
	}
}

// pump copies records from the console until it fails or ctx ends.
func (in *input) pump(ctx context.Context) {
	defer close(in.recs)
	for {
		rec, err := in.Console.ReadRecord(ctx)
		if err != nil {
			in.mu.Lock()
			in.err = err
			in.mu.Unlock()
			return
		}
		if k := rec.Key; k != nil && k.Down && k.Interrupt() && in.running() {
			in.interrupt()
			continue
		}
		select {
		case in.recs <- rec:
		case <-ctx.Done():
			return
		}
	}
}

// ReadRecord returns the next pumped record.
func (in *input) ReadRecord(ctx context.Context) (console.Record, error) {
	select {
	case rec, ok := <-in.recs:
		if !ok {
			return console.Record{}, in.failure(ctx)
		}
		return rec, nil
	case <-ctx.Done():
		return console.Record{}, ctx.Err()
	}
}

func (in *input) failure(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err != nil {
		return in.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return console.ErrClosed
}

// ReadLine reads cooked input through the pump.
func (in *input) ReadLine(ctx context.Context) (string, error) {
	return console.ReadLineFrom(ctx, in)
}
