package device

import (
	"flag"
	"fmt"
	"log"

	"github.com/robotalks/linkstack/pkg/codec"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/msgs"
)

// Config is the device configuration.
type Config struct {
	// Rate is the initial status rate in Hz, 0 disables status.
	Rate uint
	// Codec is the codec family of status messages.
	Codec string
	// Voltage is the battery voltage at start.
	Voltage float64
}

var defaultConfig = Config{
	Rate:    1,
	Codec:   "binary",
	Voltage: 12.6,
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.Rate, "status-rate", defaultConfig.Rate, "Status rate in Hz.")
	flag.StringVar(&defaultConfig.Codec, "status-codec", defaultConfig.Codec, "Status codec: binary, text, proto or cbor.")
	flag.Float64Var(&defaultConfig.Voltage, "voltage", defaultConfig.Voltage, "Initial battery voltage.")
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewRegistry creates the message registry of the device.
func NewRegistry() *codec.Registry {
	return msgs.Register(codec.NewRegistry()).
		Use(codec.Standard()...)
}

// CodecID resolves the codec name to its frame identifier.
func CodecID(name string) (byte, error) {
	id, ok := codec.FamilyID(name)
	if !ok {
		return 0, fmt.Errorf("unknown codec %q", name)
	}
	return id, nil
}

// NewDevice creates a Device on link m.
func (c *Config) NewDevice(m *link.Manager) (*Device, error) {
	id, err := CodecID(c.Codec)
	if err != nil {
		return nil, err
	}
	if c.Rate > 0xffff {
		return nil, fmt.Errorf("status rate %d out of range", c.Rate)
	}
	return New(m, NewRegistry(), id, uint16(c.Rate), float32(c.Voltage)), nil
}

// MustNewDevice creates a Device and fails on error.
func (c *Config) MustNewDevice(m *link.Manager) *Device {
	d, err := c.NewDevice(m)
	if err != nil {
		log.Fatalln(err)
	}
	return d
}
