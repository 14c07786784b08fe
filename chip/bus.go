// Package chip models the pin-level wrapper around the cache controller.
//
// The chip exposes an 8-bit dedicated input bus (ui_in), an 8-bit dedicated
// output bus (uo_out), an 8-bit bidirectional bus (uio_*) that is unused, an
// enable line and an active-low reset.
//
// ui_in layout, low to high:
//
//	bit 0    request_valid
//	bit 1    read_write (0 = read, 1 = write)
//	bits 3:2 address
//	bits 5:4 write_data
//	bits 7:6 ignored
//
// uo_out layout, low to high:
//
//	bit 0    hit
//	bits 2:1 read_data
//	bits 7:3 always 0
package chip

import (
	"github.com/sarchlab/dmcache/timing/cache"
)

// Bus field positions and widths.
const (
	ValidBit = 0
	WriteBit = 1

	AddressShift = 2
	AddressBits  = 2

	WriteDataShift = 4
	WriteDataBits  = 2

	HitBit = 0

	ReadDataShift = 1
	ReadDataBits  = 2
)

const (
	addressMask   = 1<<AddressBits - 1
	writeDataMask = 1<<WriteDataBits - 1
	readDataMask  = 1<<ReadDataBits - 1
)

// BusConfig returns the cache geometry that fits the pin layout.
func BusConfig() cache.Config {
	return cache.Config{
		AddressWidth: AddressBits,
		IndexWidth:   AddressBits,
		DataWidth:    WriteDataBits,
	}
}

// EncodeRequest packs req into a ui_in value. Address and data bits that do
// not fit the bus are dropped.
func EncodeRequest(req cache.Request) uint8 {
	var v uint8
	if req.Valid {
		v |= 1 << ValidBit
	}
	if req.Op == cache.OpWrite {
		v |= 1 << WriteBit
	}
	v |= uint8(req.Address&addressMask) << AddressShift
	v |= uint8(req.WriteData&writeDataMask) << WriteDataShift
	return v
}

// Fields are the raw request fields carried on ui_in.
type Fields struct {
	Valid     bool
	Write     bool
	Address   uint64
	WriteData uint64
}

// UnpackRequest extracts the request fields of a ui_in value. Bits 7:6 are
// ignored.
func UnpackRequest(uiIn uint8) Fields {
	return Fields{
		Valid:     uiIn>>ValidBit&1 == 1,
		Write:     uiIn>>WriteBit&1 == 1,
		Address:   uint64(uiIn>>AddressShift) & addressMask,
		WriteData: uint64(uiIn>>WriteDataShift) & writeDataMask,
	}
}

// DecodeRequest decodes a ui_in value for the bus geometry.
func DecodeRequest(uiIn uint8) cache.Request {
	return decode(cache.NewDecoder(BusConfig()), uiIn)
}

func decode(d *cache.Decoder, uiIn uint8) cache.Request {
	f := UnpackRequest(uiIn)
	return d.Decode(f.Valid, f.Write, f.Address, f.WriteData)
}

// EncodeResponse packs resp into a uo_out value.
func EncodeResponse(resp cache.Response) uint8 {
	var v uint8
	if resp.Hit {
		v |= 1 << HitBit
	}
	v |= uint8(resp.Data&readDataMask) << ReadDataShift
	return v
}

// DecodeResponse unpacks a uo_out value.
func DecodeResponse(uoOut uint8) cache.Response {
	return cache.Response{
		Hit:  uoOut>>HitBit&1 == 1,
		Data: uint64(uoOut>>ReadDataShift) & readDataMask,
	}
}
