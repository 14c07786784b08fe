// Package testbench drives the chip with a clock and checks its outputs.
//
// A Bench is an Akita ticking component: each tick is one rising edge of the
// chip clock. Scripts hold the input pins for a number of edges and then
// compare uo_out against an expectation, the way a cocotb test sets inputs
// and awaits ClockCycles.
package testbench

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dmcache/chip"
	"github.com/sarchlab/dmcache/timing/cache"
	"github.com/sarchlab/dmcache/trace"
)

// DefaultFreq is the chip clock: a 10 us period.
const DefaultFreq = 100 * sim.KHz

// Mismatch is a step whose outputs differed from its expectation.
type Mismatch struct {
	Step  int
	Name  string
	Cycle uint64
	Want  Expect
	Got   cache.Response
}

func (m Mismatch) String() string {
	if m.Want.CheckData {
		return fmt.Sprintf("step %d (%s) at cycle %d: want hit=%t data=%d, got hit=%t data=%d",
			m.Step, m.Name, m.Cycle, m.Want.Hit, m.Want.Data, m.Got.Hit, m.Got.Data)
	}
	return fmt.Sprintf("step %d (%s) at cycle %d: want hit=%t, got hit=%t",
		m.Step, m.Name, m.Cycle, m.Want.Hit, m.Got.Hit)
}

// Result summarizes one script run.
type Result struct {
	RunID      string
	Script     string
	Cycles     uint64
	StartTime  float64
	EndTime    float64
	Mismatches []Mismatch
	Stats      cache.Statistics
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// Option is a functional option for configuring the Bench.
type Option func(*Bench)

// WithFreq sets the clock frequency.
func WithFreq(freq sim.Freq) Option {
	return func(b *Bench) {
		b.freq = freq
	}
}

// WithEngine runs the bench on an existing engine.
func WithEngine(engine sim.Engine) Option {
	return func(b *Bench) {
		b.engine = engine
	}
}

// WithTraceWriter records every clock edge. The writer must already be
// initialized; the bench flushes it at the end of each run.
func WithTraceWriter(writer trace.Writer) Option {
	return func(b *Bench) {
		b.writer = writer
	}
}

// WithLogger sets the logger for run and mismatch reports.
func WithLogger(log logr.Logger) Option {
	return func(b *Bench) {
		b.log = log
	}
}

// Bench clocks a chip through scripts.
type Bench struct {
	*sim.TickingComponent

	engine sim.Engine
	freq   sim.Freq
	top    *chip.Top
	writer trace.Writer
	log    logr.Logger

	runID      string
	steps      []Step
	stepIndex  int
	remaining  int
	cycle      uint64
	mismatches []Mismatch
}

// New creates a bench around top. Without WithEngine, the bench owns a
// serial engine.
func New(top *chip.Top, opts ...Option) *Bench {
	b := &Bench{
		freq: DefaultFreq,
		top:  top,
		log:  logr.Discard(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.engine == nil {
		b.engine = sim.NewSerialEngine()
	}

	b.TickingComponent = sim.NewTickingComponent("Bench", b.engine, b.freq, b)

	return b
}

// Top returns the chip under test.
func (b *Bench) Top() *chip.Top {
	return b.top
}

// Cycle returns the number of edges applied by this bench.
func (b *Bench) Cycle() uint64 {
	return b.cycle
}

// Run clocks the chip through every step of script and checks the
// expectations. Mismatches are reported in the result, not as an error.
func (b *Bench) Run(script Script) (Result, error) {
	if err := script.Validate(); err != nil {
		return Result{}, err
	}

	b.runID = trace.NewRunID()
	b.steps = script.Steps
	b.stepIndex = 0
	b.remaining = script.Steps[0].Cycles
	b.mismatches = nil

	startCycle := b.cycle
	startTime := float64(b.engine.CurrentTime())
	b.top.Controller().ResetStats()

	b.log.Info("run started", "script", script.Name, "run", b.runID)

	b.TickLater()
	if err := b.engine.Run(); err != nil {
		return Result{}, fmt.Errorf("simulation of %q failed: %w", script.Name, err)
	}

	if b.writer != nil {
		if err := b.writer.Flush(); err != nil {
			return Result{}, fmt.Errorf("failed to flush trace: %w", err)
		}
	}

	result := Result{
		RunID:      b.runID,
		Script:     script.Name,
		Cycles:     b.cycle - startCycle,
		StartTime:  startTime,
		EndTime:    float64(b.engine.CurrentTime()),
		Mismatches: b.mismatches,
		Stats:      b.top.Controller().Stats(),
	}

	b.log.Info("run finished",
		"script", script.Name,
		"cycles", result.Cycles,
		"mismatches", len(result.Mismatches),
	)

	return result, nil
}

// Tick applies one clock edge. It returns false once the script is done so
// that the engine runs out of events.
func (b *Bench) Tick() bool {
	if b.stepIndex >= len(b.steps) {
		return false
	}

	step := b.steps[b.stepIndex]
	out := b.top.Clock(step.Pins)
	b.cycle++
	b.record(step.Pins, out)

	b.remaining--
	if b.remaining > 0 {
		return true
	}

	b.check(step, out)

	b.stepIndex++
	if b.stepIndex >= len(b.steps) {
		return false
	}
	b.remaining = b.steps[b.stepIndex].Cycles

	return true
}

func (b *Bench) check(step Step, out chip.Outputs) {
	if step.Expect == nil {
		return
	}

	got := out.Response()
	want := *step.Expect
	if got.Hit == want.Hit && (!want.CheckData || got.Data == want.Data) {
		return
	}

	m := Mismatch{
		Step:  b.stepIndex,
		Name:  step.Name,
		Cycle: b.cycle,
		Want:  want,
		Got:   got,
	}
	b.mismatches = append(b.mismatches, m)
	b.log.Info("mismatch", "detail", m.String())
}

func (b *Bench) record(p chip.Pins, out chip.Outputs) {
	if b.writer == nil {
		return
	}

	req := b.top.Request(p)
	resp := out.Response()

	b.writer.Write(trace.Record{
		RunID:   b.runID,
		Cycle:   b.cycle,
		Time:    float64(b.engine.CurrentTime()),
		Ena:     p.Ena,
		RstN:    p.RstN,
		UIIn:    p.UIIn,
		UOOut:   out.UOOut,
		Op:      opName(p, req),
		Address: req.Address,
		Hit:     resp.Hit,
		Data:    resp.Data,
	})
}

func opName(p chip.Pins, req cache.Request) string {
	switch {
	case !p.RstN:
		return "reset"
	case !p.Ena:
		return "disabled"
	case !req.Valid:
		return "idle"
	default:
		return req.Op.String()
	}
}
