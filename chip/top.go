package chip

import (
	"fmt"

	"github.com/sarchlab/dmcache/timing/cache"
)

// Pins are the chip inputs sampled at a rising clock edge.
type Pins struct {
	// Ena gates the design. While low, requests are ignored.
	Ena bool
	// RstN is the active-low synchronous reset.
	RstN bool
	// UIIn is the dedicated input bus.
	UIIn uint8
	// UIOIn is the bidirectional input bus. Unused.
	UIOIn uint8
}

// Outputs are the chip outputs after a clock edge.
type Outputs struct {
	UOOut  uint8
	UIOOut uint8
	UIOOE  uint8
}

// Response decodes the uo_out bus.
func (o Outputs) Response() cache.Response {
	return DecodeResponse(o.UOOut)
}

// Top connects the pins to a cache controller.
//
// uo_out is registered: the response computed during a cycle from the
// pre-edge state is latched by that cycle's edge, so a request presented
// before an edge is answered on uo_out right after it.
type Top struct {
	ctrl *cache.Controller
	out  Outputs
}

// NewTop creates a chip around a controller with the bus geometry.
func NewTop(opts ...cache.Option) *Top {
	return &Top{ctrl: cache.New(BusConfig(), opts...)}
}

// NewTopWithController wraps an existing controller. The controller must
// use 2-bit addresses and 2-bit data words; its index width may be smaller
// to model a tagged cache.
func NewTopWithController(ctrl *cache.Controller) (*Top, error) {
	config := ctrl.Config()
	if config.AddressWidth != AddressBits {
		return nil, fmt.Errorf("address_width %d does not match the %d-bit address bus",
			config.AddressWidth, AddressBits)
	}
	if config.DataWidth != WriteDataBits {
		return nil, fmt.Errorf("data_width %d does not match the %d-bit data bus",
			config.DataWidth, WriteDataBits)
	}

	return &Top{ctrl: ctrl}, nil
}

// Controller returns the wrapped controller.
func (t *Top) Controller() *cache.Controller {
	return t.ctrl
}

// Outputs returns the current output pins.
func (t *Top) Outputs() Outputs {
	return t.out
}

// Request returns the request the controller sees for the given pins. The
// ui_in fields go through the controller's decoder, so its configured
// widths apply.
func (t *Top) Request(p Pins) cache.Request {
	req := decode(t.ctrl.Decoder(), p.UIIn)
	if !p.Ena {
		req.Valid = false
	}
	return req
}

// Clock applies one rising edge with the given input pins and returns the
// outputs after the edge.
func (t *Top) Clock(p Pins) Outputs {
	resp := t.ctrl.Step(!p.RstN, t.Request(p))

	t.out = Outputs{UOOut: EncodeResponse(resp)}

	return t.out
}
