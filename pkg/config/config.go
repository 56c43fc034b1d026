// Package config builds links from command line flags, LINK_* environment
// variables and TOML files.
package config

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/link/protocols"
	"github.com/robotalks/linkstack/pkg/transport"
	"github.com/robotalks/linkstack/pkg/transport/mqtt"
	"github.com/robotalks/linkstack/pkg/transport/websocket"
)

// Config describes one link.
type Config struct {
	// URL selects the transport, e.g.
	//   serial:///dev/ttyUSB0?baud=115200
	//   tcp://host:port
	//   mqtt://host:1883/prefix/
	//   ws://host/path
	URL string `toml:"url"`
	// Name is the link name used for MQTT topics.
	Name string `toml:"name"`
	// Device selects the device side of the MQTT topic pair.
	Device bool `toml:"device"`
	// Protocols lists protocol names in probe order.
	Protocols []string `toml:"protocols"`
	// Timeouts overrides the incomplete frame timeout per protocol.
	Timeouts map[string]time.Duration `toml:"timeouts"`

	RxSize   int           `toml:"rx_size"`
	MaxFrame int           `toml:"max_frame"`
	TxFrames int           `toml:"tx_frames"`
	Timeout  time.Duration `toml:"timeout"`
	// Interval is the pump interval of the loop.
	Interval time.Duration `toml:"interval"`
}

// Protocol names
const (
	ProtocolSum8 = "sum8"
	ProtocolHDLC = "hdlc"
	ProtocolLine = "line"
)

// DefaultLinkName is the MQTT link name when Name is empty.
const DefaultLinkName = "link"

var defaultConfig = newDefault()

func newDefault() Config {
	opts := link.DefaultOptions()
	return Config{
		URL:       "serial:///dev/ttyUSB0",
		Name:      DefaultLinkName,
		Protocols: []string{ProtocolHDLC, ProtocolSum8, ProtocolLine},
		RxSize:    opts.RxSize,
		MaxFrame:  opts.MaxFrame,
		TxFrames:  opts.TxFrames,
		Timeout:   opts.Timeout,
		Interval:  10 * time.Millisecond,
	}
}

func init() {
	if err := defaultConfig.ApplyEnv(os.LookupEnv); err != nil {
		glog.Warningf("config: %v", err)
	}
}

// ApplyEnv overrides fields from LINK_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if val, ok := lookup("LINK_URL"); ok && val != "" {
		c.URL = val
	}
	if val, ok := lookup("LINK_NAME"); ok && val != "" {
		c.Name = val
	}
	if val, ok := lookup("LINK_DEVICE"); ok && val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("LINK_DEVICE: %w", err)
		}
		c.Device = b
	}
	if val, ok := lookup("LINK_PROTOCOLS"); ok && val != "" {
		c.Protocols = splitList(val)
	}
	for _, v := range []struct {
		name string
		ptr  *int
	}{
		{"LINK_RX_SIZE", &c.RxSize},
		{"LINK_MAX_FRAME", &c.MaxFrame},
		{"LINK_TX_FRAMES", &c.TxFrames},
	} {
		if val, ok := lookup(v.name); ok && val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
			*v.ptr = n
		}
	}
	for _, v := range []struct {
		name string
		ptr  *time.Duration
	}{
		{"LINK_TIMEOUT", &c.Timeout},
		{"LINK_INTERVAL", &c.Interval},
	} {
		if val, ok := lookup(v.name); ok && val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
			*v.ptr = d
		}
	}
	return nil
}

// SetupFlags binds command line flags to the default config.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "link", defaultConfig.URL, "Link transport URL.")
	flag.StringVar(&defaultConfig.Name, "link-name", defaultConfig.Name, "Link name for MQTT topics.")
	flag.BoolVar(&defaultConfig.Device, "link-device", defaultConfig.Device, "Act as the device side of the link.")
	flag.Func("link-protocols", "Comma separated protocols in probe order.", func(val string) error {
		defaultConfig.Protocols = splitList(val)
		return nil
	})
	flag.IntVar(&defaultConfig.MaxFrame, "link-max-frame", defaultConfig.MaxFrame, "Max frame payload size.")
	flag.DurationVar(&defaultConfig.Timeout, "link-timeout", defaultConfig.Timeout, "Incomplete frame timeout.")
	flag.DurationVar(&defaultConfig.Interval, "link-interval", defaultConfig.Interval, "Pump interval.")
	flag.Func("link-config", "TOML file with link settings.", func(path string) error {
		return defaultConfig.LoadFile(path)
	})
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a copy of the default config.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Protocols = append([]string(nil), defaultConfig.Protocols...)
	return &conf
}

// LoadFile merges settings from a TOML file. Keys absent in the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Options returns the link manager options.
func (c *Config) Options() link.Options {
	return link.Options{
		RxSize:   c.RxSize,
		MaxFrame: c.MaxFrame,
		TxFrames: c.TxFrames,
		Timeout:  c.Timeout,
	}
}

// NewProtocol creates a protocol by name with the configured timeout.
func (c *Config) NewProtocol(name string) (link.Protocol, error) {
	wait := c.Timeouts[name]
	switch name {
	case ProtocolSum8:
		p := protocols.NewSum8()
		p.Wait = wait
		return p, nil
	case ProtocolHDLC:
		p := protocols.NewHDLC()
		p.Wait = wait
		return p, nil
	case ProtocolLine:
		p := protocols.NewLine()
		if wait > 0 {
			p.Wait = wait
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
}

// NewManager creates a link manager over t with configured protocols.
func (c *Config) NewManager(t link.Transport) (*link.Manager, error) {
	if len(c.Protocols) == 0 {
		return nil, fmt.Errorf("no protocols configured")
	}
	m := link.NewManager(t, c.Options())
	for _, name := range c.Protocols {
		p, err := c.NewProtocol(name)
		if err != nil {
			return nil, err
		}
		m.Register(p)
	}
	return m, nil
}

// Endpoint is an opened transport.
type Endpoint struct {
	link.Transport
	closer io.Closer
}

// Close releases the transport.
func (e *Endpoint) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// AddToLoop starts the background reader of the transport with the loop.
func (e *Endpoint) AddToLoop(l *framework.Loop) {
	if adder, ok := e.Transport.(framework.LoopAdder); ok {
		adder.AddToLoop(l)
	}
}

// Open opens the transport selected by URL.
func (c *Config) Open(ctx context.Context) (*Endpoint, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		baud := transport.DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
		s, err := transport.OpenSerial(u.Path, baud)
		if err != nil {
			return nil, err
		}
		return &Endpoint{Transport: s, closer: s}, nil
	case "tcp":
		s, err := transport.Dial(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		return &Endpoint{Transport: s, closer: s}, nil
	case "mqtt", "ssl":
		return c.openMQTT()
	case "ws", "wss":
		t, err := websocket.Dial(c.URL, "")
		if err != nil {
			return nil, err
		}
		return &Endpoint{Transport: t, closer: t}, nil
	default:
		return nil, fmt.Errorf("%w: %q", transport.ErrUnsupportedScheme, u.Scheme)
	}
}

func (c *Config) openMQTT() (*Endpoint, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.URL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID(ClientID())
	}
	client := mqtt.NewClient(opts, prefix)
	if err := client.Connect(); err != nil {
		return nil, err
	}
	name := c.Name
	if name == "" {
		name = DefaultLinkName
	}
	t := mqtt.ForHost(client, name)
	if c.Device {
		t = mqtt.ForDevice(client, name)
	}
	return &Endpoint{Transport: t, closer: client}, nil
}

// MustOpen opens the transport and fails on error.
func (c *Config) MustOpen(ctx context.Context) *Endpoint {
	ep, err := c.Open(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return ep
}

// MustNewManager creates the link manager and fails on error.
func (c *Config) MustNewManager(t link.Transport) *link.Manager {
	m, err := c.NewManager(t)
	if err != nil {
		log.Fatalln(err)
	}
	return m
}

func splitList(val string) []string {
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
