package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/veezhang/csp"
)

var benchLogger = NewColorLogger("[BENCH] ", color.New(color.FgMagenta, color.Bold))

// Result is one scenario's outcome.
type Result struct {
	Scenario string
	Messages int
	Elapsed  time.Duration
}

// Throughput returns delivered messages per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Messages) / r.Elapsed.Seconds()
}

func runScenario(s Scenario) (Result, error) {
	if s.Messages <= 0 {
		return Result{}, fmt.Errorf("scenario %q: messages must be positive", s.Name)
	}
	bar := progressbar.Default(int64(s.Messages), s.Name)
	defer bar.Finish()

	start := time.Now()
	var delivered int
	var err error
	switch s.Kind {
	case "pingpong":
		delivered, err = runPingPong(s, bar)
	case "pipeline":
		delivered, err = runPipeline(s, bar)
	case "fanin":
		delivered, err = runFanIn(s, bar)
	case "timeout":
		delivered, err = runTimeout(s, bar)
	default:
		return Result{}, fmt.Errorf("scenario %q: unknown kind %q", s.Name, s.Kind)
	}
	if err != nil {
		return Result{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return Result{Scenario: s.Name, Messages: delivered, Elapsed: time.Since(start)}, nil
}

// runPingPong bounces messages between two channels, one rendezvous (or
// buffer hop) per direction.
func runPingPong(s Scenario, bar *progressbar.ProgressBar) (int, error) {
	ping := csp.New[int](s.Capacity)
	pong := csp.New[int](s.Capacity)
	go func() {
		for {
			v, ok := ping.Recv()
			if !ok {
				pong.Close()
				return
			}
			if pong.Send(v) != nil {
				return
			}
		}
	}()

	for i := 0; i < s.Messages; i++ {
		if err := ping.Send(i); err != nil {
			return i, err
		}
		if v, ok := pong.Recv(); !ok || v != i {
			return i, fmt.Errorf("echo mismatch: got (%d, %v), want %d", v, ok, i)
		}
		bar.Add(1)
	}
	ping.Close()
	return s.Messages, nil
}

// runPipeline chains worker stages; each stage increments and forwards, so
// the tail value checks the whole chain.
func runPipeline(s Scenario, bar *progressbar.ProgressBar) (int, error) {
	stages := s.Workers
	if stages < 1 {
		stages = 1
	}
	chans := make([]*csp.Chan[int], stages+1)
	for i := range chans {
		chans[i] = csp.New[int](s.Capacity)
	}
	for w := 0; w < stages; w++ {
		in, out := chans[w], chans[w+1]
		go func() {
			for v := range in.All() {
				if out.Send(v+1) != nil {
					return
				}
			}
			out.Close()
		}()
	}
	go func() {
		for i := 0; i < s.Messages; i++ {
			if chans[0].Send(i) != nil {
				return
			}
		}
		chans[0].Close()
	}()

	count := 0
	for v := range chans[stages].All() {
		if v != count+stages {
			return count, fmt.Errorf("pipeline mismatch: got %d, want %d", v, count+stages)
		}
		count++
		bar.Add(1)
	}
	if count != s.Messages {
		return count, fmt.Errorf("pipeline delivered %d of %d", count, s.Messages)
	}
	return count, nil
}

// runFanIn multiplexes worker producers through one Select, clearing each
// case as its producer drains.
func runFanIn(s Scenario, bar *progressbar.ProgressBar) (int, error) {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	per := s.Messages / workers
	ops := make([]csp.Op, workers)
	recvs := make([]*csp.RecvOp[int], workers)
	for i := 0; i < workers; i++ {
		c := csp.New[int](s.Capacity)
		r := csp.Recv(c)
		recvs[i], ops[i] = r, r
		go func(c *csp.Chan[int]) {
			for j := 0; j < per; j++ {
				if c.Send(j) != nil {
					return
				}
			}
			c.Close()
		}(c)
	}

	sel := csp.NewSelect(ops...)
	received := 0
	for open := workers; open > 0; {
		idx, err := sel.Select()
		if err != nil {
			return received, err
		}
		if _, ok := recvs[idx].Value(); !ok {
			// drained producer: from here on the case behaves like a nil channel
			sel.ClearAt(idx)
			open--
			continue
		}
		received++
		bar.Add(1)
	}
	if received != per*workers {
		return received, fmt.Errorf("fan-in delivered %d of %d", received, per*workers)
	}
	return received, nil
}

// runTimeout guards every receive with a timer case; a healthy run never
// times out, so the scenario measures select-with-timer overhead.
func runTimeout(s Scenario, bar *progressbar.ProgressBar) (int, error) {
	work := csp.New[int](s.Capacity)
	go func() {
		for i := 0; i < s.Messages; i++ {
			if work.Send(i) != nil {
				return
			}
		}
		work.Close()
	}()

	received := 0
	for {
		r := csp.Recv(work)
		sel := csp.NewSelect(r, csp.Recv(csp.After(time.Second)))
		idx, err := sel.Select()
		if err != nil {
			return received, err
		}
		if idx == 1 {
			return received, fmt.Errorf("receive timed out after %d messages", received)
		}
		if _, ok := r.Value(); !ok {
			if received != s.Messages {
				return received, fmt.Errorf("timeout scenario delivered %d of %d", received, s.Messages)
			}
			return received, nil
		}
		received++
		bar.Add(1)
	}
}
