package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the geometry of a direct-mapped cache.
//
// The number of lines is 2^IndexWidth. When AddressWidth equals IndexWidth
// every address owns its own line and the tag is empty; a larger address
// space adds a tag compare to the hit check.
type Config struct {
	// AddressWidth is the number of request address bits. Default: 2.
	AddressWidth uint `json:"address_width"`

	// IndexWidth is the number of low address bits used to select a line.
	// Default: 2 (4 lines).
	IndexWidth uint `json:"index_width"`

	// DataWidth is the number of bits in one stored data word. Default: 2.
	DataWidth uint `json:"data_width"`
}

// Maximum supported field widths.
const (
	MaxAddressWidth = 32
	MaxIndexWidth   = 20
	MaxDataWidth    = 64
)

// DefaultConfig returns the 4-line, 2-bit data configuration exposed on the
// chip pins.
func DefaultConfig() Config {
	return Config{
		AddressWidth: 2,
		IndexWidth:   2,
		DataWidth:    2,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid cache config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks that the widths describe a buildable cache.
func (c Config) Validate() error {
	if c.AddressWidth == 0 {
		return fmt.Errorf("address_width must be > 0")
	}
	if c.AddressWidth > MaxAddressWidth {
		return fmt.Errorf("address_width must be <= %d", MaxAddressWidth)
	}
	if c.IndexWidth == 0 {
		return fmt.Errorf("index_width must be > 0")
	}
	if c.IndexWidth > MaxIndexWidth {
		return fmt.Errorf("index_width must be <= %d", MaxIndexWidth)
	}
	if c.IndexWidth > c.AddressWidth {
		return fmt.Errorf("index_width must be <= address_width")
	}
	if c.DataWidth == 0 {
		return fmt.Errorf("data_width must be > 0")
	}
	if c.DataWidth > MaxDataWidth {
		return fmt.Errorf("data_width must be <= %d", MaxDataWidth)
	}
	return nil
}

// NumLines returns the number of cache lines.
func (c Config) NumLines() int {
	return 1 << c.IndexWidth
}

// TagWidth returns the number of address bits above the index.
func (c Config) TagWidth() uint {
	return c.AddressWidth - c.IndexWidth
}

// AddressMask returns a mask covering AddressWidth bits.
func (c Config) AddressMask() uint64 {
	return mask(c.AddressWidth)
}

// DataMask returns a mask covering DataWidth bits.
func (c Config) DataMask() uint64 {
	return mask(c.DataWidth)
}

// Index returns the line selected by addr.
func (c Config) Index(addr uint64) int {
	return int(addr & mask(c.IndexWidth))
}

// Tag returns the address bits above the index.
func (c Config) Tag(addr uint64) uint64 {
	return (addr & c.AddressMask()) >> c.IndexWidth
}

func mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
