package testbench

import (
	"fmt"
	"math/rand/v2"

	"github.com/sarchlab/dmcache/chip"
	"github.com/sarchlab/dmcache/timing/cache"
)

const numAddresses = 1 << chip.AddressBits

// Workloads returns the standard set of scripts. Each targets one property
// of the controller.
func Workloads() []Script {
	return []Script{
		ReferenceScenario(),
		coldMiss(),
		fillAndReadBack(),
		overwrite(),
		idleNoise(),
		resetClears(),
	}
}

// Workload returns the workload with the given name.
func Workload(name string) (Script, error) {
	for _, s := range Workloads() {
		if s.Name == name {
			return s, nil
		}
	}
	return Script{}, fmt.Errorf("unknown workload %q", name)
}

func resetSequence() []Step {
	return []Step{ResetStep(2), IdleStep(2)}
}

// coldMiss reads every address right after reset.
func coldMiss() Script {
	steps := resetSequence()
	for addr := uint64(0); addr < numAddresses; addr++ {
		steps = append(steps, ReadStep(addr).ExpectHit(false))
	}
	return Script{Name: "cold_miss", Steps: steps}
}

// fillAndReadBack writes every line once, then reads them all back.
func fillAndReadBack() Script {
	steps := resetSequence()
	for addr := uint64(0); addr < numAddresses; addr++ {
		steps = append(steps, WriteStep(addr, 3-addr).ExpectHit(false))
	}
	for addr := uint64(0); addr < numAddresses; addr++ {
		steps = append(steps, ReadStep(addr).ExpectData(3-addr))
	}
	return Script{Name: "fill_read_back", Steps: steps}
}

// overwrite writes the same line back to back; the second write hits and
// the last value wins.
func overwrite() Script {
	steps := append(resetSequence(),
		WriteStep(2, 1).ExpectHit(false),
		WriteStep(2, 3).ExpectHit(true),
		ReadStep(2).ExpectData(3),
		ReadStep(1).ExpectHit(false),
	)
	return Script{Name: "overwrite", Steps: steps}
}

// idleNoise presents writes with request_valid low; none may take effect.
func idleNoise() Script {
	steps := resetSequence()
	for addr := uint64(0); addr < numAddresses; addr++ {
		req := cache.WriteRequest(addr, 1)
		req.Valid = false
		steps = append(steps,
			RequestStep(fmt.Sprintf("invalid write(%d,1)", addr), req).ExpectHit(false))
	}
	for addr := uint64(0); addr < numAddresses; addr++ {
		steps = append(steps, ReadStep(addr).ExpectHit(false))
	}
	return Script{Name: "idle_noise", Steps: steps}
}

// resetClears shows that a reset invalidates lines written before it.
func resetClears() Script {
	steps := append(resetSequence(),
		WriteStep(0, 2).ExpectHit(false),
		ReadStep(0).ExpectData(2),
	)
	steps = append(steps, resetSequence()...)
	steps = append(steps, ReadStep(0).ExpectHit(false))
	return Script{Name: "reset_clears", Steps: steps}
}

// model is a reference cache used to predict outputs for generated traffic.
type model struct {
	valid [numAddresses]bool
	data  [numAddresses]uint64
}

// RandomScript generates n random requests after a reset, with each step's
// expectation predicted by a reference model. The same seed always yields
// the same script.
func RandomScript(seed uint64, n int) Script {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	steps := resetSequence()

	var m model
	for i := 0; i < n; i++ {
		addr := rng.Uint64N(numAddresses)
		data := rng.Uint64N(1 << chip.WriteDataBits)

		switch rng.IntN(8) {
		case 0:
			req := cache.WriteRequest(addr, data)
			req.Valid = false
			steps = append(steps, RequestStep("invalid", req).ExpectHit(false))
		case 1, 2, 3:
			steps = append(steps, WriteStep(addr, data).ExpectHit(m.valid[addr]))
			m.valid[addr] = true
			m.data[addr] = data
		default:
			if m.valid[addr] {
				steps = append(steps, ReadStep(addr).ExpectData(m.data[addr]))
			} else {
				steps = append(steps, ReadStep(addr).ExpectHit(false))
			}
		}
	}

	return Script{Name: fmt.Sprintf("random_%d", seed), Steps: steps}
}
