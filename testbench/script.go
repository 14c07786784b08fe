package testbench

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/dmcache/chip"
	"github.com/sarchlab/dmcache/timing/cache"
)

// Expect is the uo_out a step must produce after its last edge.
type Expect struct {
	Hit bool
	// Data is compared only when CheckData is set, since read data after a
	// miss or a write is not meaningful.
	Data      uint64
	CheckData bool
}

// Step holds a set of input pins for a number of clock edges.
type Step struct {
	Name   string
	Pins   chip.Pins
	Cycles int
	Expect *Expect
}

// ResetStep asserts reset for the given number of cycles.
func ResetStep(cycles int) Step {
	return Step{
		Name:   "reset",
		Pins:   chip.Pins{Ena: true, RstN: false},
		Cycles: cycles,
	}
}

// IdleStep holds an enabled chip without a request.
func IdleStep(cycles int) Step {
	return Step{
		Name:   "idle",
		Pins:   chip.Pins{Ena: true, RstN: true},
		Cycles: cycles,
	}
}

// ReadStep presents a read of addr for one cycle.
func ReadStep(addr uint64) Step {
	return RequestStep(fmt.Sprintf("read(%d)", addr), cache.ReadRequest(addr))
}

// WriteStep presents a write of data to addr for one cycle.
func WriteStep(addr, data uint64) Step {
	return RequestStep(fmt.Sprintf("write(%d,%d)", addr, data),
		cache.WriteRequest(addr, data))
}

// RequestStep presents req on ui_in for one cycle.
func RequestStep(name string, req cache.Request) Step {
	return Step{
		Name:   name,
		Pins:   chip.Pins{Ena: true, RstN: true, UIIn: chip.EncodeRequest(req)},
		Cycles: 1,
	}
}

// ExpectHit returns a copy of s that checks the hit bit.
func (s Step) ExpectHit(hit bool) Step {
	s.Expect = &Expect{Hit: hit}
	return s
}

// ExpectData returns a copy of s that expects a hit with the given data.
func (s Step) ExpectData(data uint64) Step {
	s.Expect = &Expect{Hit: true, Data: data, CheckData: true}
	return s
}

// Script is a sequence of steps run back to back.
type Script struct {
	Name  string
	Steps []Step
}

// Cycles returns the number of clock edges the script takes.
func (s Script) Cycles() int {
	total := 0
	for _, step := range s.Steps {
		total += step.Cycles
	}
	return total
}

// Validate checks that the script can be run.
func (s Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if step.Cycles <= 0 {
			return fmt.Errorf("step %d (%s): cycles must be > 0", i, step.Name)
		}
	}
	return nil
}

// ReferenceScenario is the basic read/write checkout: reset, allocate a
// line, read it back, miss elsewhere, overwrite and read again.
func ReferenceScenario() Script {
	return Script{
		Name: "reference",
		Steps: []Step{
			ResetStep(2),
			IdleStep(2),
			WriteStep(1, 2).ExpectHit(false),
			ReadStep(1).ExpectData(2),
			ReadStep(2).ExpectHit(false),
			WriteStep(1, 3).ExpectHit(true),
			ReadStep(1).ExpectData(3),
		},
	}
}

// stepSpec is the JSON form of a Step.
type stepSpec struct {
	Name string `json:"name,omitempty"`

	// Op is "read", "write", "idle" or "reset". Leave empty and set UIIn
	// to drive the bus directly.
	Op   string `json:"op,omitempty"`
	Addr uint64 `json:"addr,omitempty"`
	Data uint64 `json:"data,omitempty"`
	UIIn *uint8 `json:"ui_in,omitempty"`

	// Ena defaults to true.
	Ena    *bool `json:"ena,omitempty"`
	Cycles int   `json:"cycles,omitempty"`

	ExpectHit  *bool   `json:"expect_hit,omitempty"`
	ExpectData *uint64 `json:"expect_data,omitempty"`
}

type scriptSpec struct {
	Name  string     `json:"name"`
	Steps []stepSpec `json:"steps"`
}

// LoadScript reads a JSON script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script file: %w", err)
	}

	script, err := ParseScript(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}

	return script, nil
}

// ParseScript decodes a JSON script.
func ParseScript(data []byte) (Script, error) {
	var spec scriptSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return Script{}, fmt.Errorf("failed to parse script: %w", err)
	}

	script := Script{Name: spec.Name}
	for i, s := range spec.Steps {
		step, err := s.build()
		if err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i, err)
		}
		script.Steps = append(script.Steps, step)
	}

	if err := script.Validate(); err != nil {
		return Script{}, err
	}

	return script, nil
}

func (s stepSpec) build() (Step, error) {
	if s.Addr>>chip.AddressBits != 0 {
		return Step{}, fmt.Errorf("address %d does not fit in %d bits",
			s.Addr, chip.AddressBits)
	}
	if s.Data>>chip.WriteDataBits != 0 {
		return Step{}, fmt.Errorf("data %d does not fit in %d bits",
			s.Data, chip.WriteDataBits)
	}

	var step Step
	switch s.Op {
	case "read":
		step = ReadStep(s.Addr)
	case "write":
		step = WriteStep(s.Addr, s.Data)
	case "idle":
		step = IdleStep(1)
	case "reset":
		step = ResetStep(1)
	case "":
		if s.UIIn == nil {
			return Step{}, fmt.Errorf("either op or ui_in is required")
		}
		step = Step{
			Name:   fmt.Sprintf("ui_in=%#08b", *s.UIIn),
			Pins:   chip.Pins{Ena: true, RstN: true},
			Cycles: 1,
		}
	default:
		return Step{}, fmt.Errorf("unknown op %q", s.Op)
	}

	if s.UIIn != nil {
		if s.Op != "" {
			return Step{}, fmt.Errorf("op and ui_in are mutually exclusive")
		}
		step.Pins.UIIn = *s.UIIn
	}
	if s.Ena != nil {
		step.Pins.Ena = *s.Ena
	}
	if s.Cycles != 0 {
		step.Cycles = s.Cycles
	}
	if s.Name != "" {
		step.Name = s.Name
	}

	switch {
	case s.ExpectData != nil:
		step = step.ExpectData(*s.ExpectData)
		if s.ExpectHit != nil && !*s.ExpectHit {
			return Step{}, fmt.Errorf("expect_data requires a hit")
		}
	case s.ExpectHit != nil:
		step = step.ExpectHit(*s.ExpectHit)
	}

	return step, nil
}
