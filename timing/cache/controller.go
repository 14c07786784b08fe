// Package cache provides a cycle-accurate model of a single-cycle,
// direct-mapped data cache controller.
//
// Every cycle the controller decodes one request, looks at the addressed
// line as it was before the clock edge, reports hit and read data, and then
// applies any write or reset at the edge. A write is therefore visible to
// the request of the following cycle and never to its own.
package cache

import (
	"fmt"

	"github.com/go-logr/logr"
)

// State is the controller's reset state register.
type State uint8

// Controller states.
const (
	StateOperating State = iota
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateOperating:
		return "operating"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Statistics holds per-cycle activity counters.
type Statistics struct {
	Cycles      uint64
	ResetCycles uint64
	IdleCycles  uint64
	Reads       uint64
	Writes      uint64
	ReadHits    uint64
	ReadMisses  uint64
	WriteHits   uint64
	WriteMisses uint64
}

// Hits returns the number of read and write hits.
func (s Statistics) Hits() uint64 {
	return s.ReadHits + s.WriteHits
}

// Misses returns the number of read and write misses.
func (s Statistics) Misses() uint64 {
	return s.ReadMisses + s.WriteMisses
}

// HitRate returns hits over accesses, or 0 when nothing was accessed.
func (s Statistics) HitRate() float64 {
	accesses := s.Reads + s.Writes
	if accesses == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(accesses)
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the logger used for per-cycle events (at V(1)) and
// resets.
func WithLogger(log logr.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// Controller is a direct-mapped cache controller clocked one Step at a time.
// It is not safe for concurrent use.
type Controller struct {
	config  Config
	decoder *Decoder
	storage *Storage

	state State
	cycle uint64
	stats Statistics

	log logr.Logger
}

// New creates a controller in its power-on state: every line invalid and
// ready to accept requests. It panics if config is invalid.
func New(config Config, opts ...Option) *Controller {
	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("cache: %w", err))
	}

	c := &Controller{
		config:  config,
		decoder: NewDecoder(config),
		storage: NewStorage(config),
		state:   StateOperating,
		log:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the cache configuration.
func (c *Controller) Config() Config {
	return c.config
}

// Decoder returns the request decoder for this geometry.
func (c *Controller) Decoder() *Decoder {
	return c.decoder
}

// State returns the current reset state.
func (c *Controller) State() State {
	return c.state
}

// Cycle returns the number of clock edges applied so far.
func (c *Controller) Cycle() uint64 {
	return c.cycle
}

// Stats returns cache statistics.
func (c *Controller) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Controller) ResetStats() {
	c.stats = Statistics{}
}

// Peek returns the current state of the line addr maps to.
func (c *Controller) Peek(addr uint64) Line {
	return c.storage.Peek(addr)
}

// Snapshot returns a copy of every line, in index order.
func (c *Controller) Snapshot() []Line {
	return c.storage.Lines()
}

// Eval computes this cycle's response and the update scheduled for the next
// clock edge. It reads the current state only.
func (c *Controller) Eval(reset bool, req Request) (Response, Update) {
	if reset {
		return Response{}, Update{Reset: true}
	}

	if c.state == StateResetting {
		return Response{}, Update{}
	}

	return Evaluate(c.config, req, c.storage.Peek(req.Address))
}

// Step runs one clock cycle: it evaluates the request against the pre-edge
// state, then applies the scheduled update as the edge. The returned
// response is the one produced during the cycle.
func (c *Controller) Step(reset bool, req Request) Response {
	resp, update := c.Eval(reset, req)

	c.count(reset, req, resp)
	c.commit(update)

	return resp
}

// Read steps one cycle with a read of addr.
func (c *Controller) Read(addr uint64) Response {
	return c.Step(false, ReadRequest(addr))
}

// Write steps one cycle with a write of data to addr.
func (c *Controller) Write(addr, data uint64) Response {
	return c.Step(false, WriteRequest(addr, data))
}

// Idle steps one cycle without a request.
func (c *Controller) Idle() Response {
	return c.Step(false, IdleRequest())
}

// Reset puts the controller back to its power-on state without spending a
// cycle: every line is invalidated and requests are accepted immediately.
// Statistics are kept.
func (c *Controller) Reset() {
	c.storage.invalidateAll()
	c.state = StateOperating
	c.log.Info("cache reset", "cycle", c.cycle)
}

func (c *Controller) commit(update Update) {
	c.cycle++

	if update.Reset {
		if c.state != StateResetting {
			c.log.Info("reset asserted", "cycle", c.cycle)
		}
		c.storage.invalidateAll()
		c.state = StateResetting
		return
	}

	if c.state == StateResetting {
		c.log.Info("reset released", "cycle", c.cycle)
	}
	c.state = StateOperating

	if update.Write {
		c.storage.write(update.Address, update.WriteData)
	}
}

func (c *Controller) count(reset bool, req Request, resp Response) {
	c.stats.Cycles++

	switch {
	case reset:
		c.stats.ResetCycles++
		return
	case c.state == StateResetting || !req.Valid:
		c.stats.IdleCycles++
		return
	}

	switch req.Op {
	case OpWrite:
		c.stats.Writes++
		if resp.Hit {
			c.stats.WriteHits++
		} else {
			c.stats.WriteMisses++
		}
	default:
		c.stats.Reads++
		if resp.Hit {
			c.stats.ReadHits++
		} else {
			c.stats.ReadMisses++
		}
	}

	c.log.V(1).Info("access",
		"cycle", c.cycle,
		"op", req.Op.String(),
		"addr", req.Address,
		"hit", resp.Hit,
		"data", resp.Data,
	)
}
