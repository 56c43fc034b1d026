// Package sh is an interactive shell sending messages over a link.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linkstack/pkg/codec"
	"github.com/robotalks/linkstack/pkg/config"
	fx "github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/msgs"
	"github.com/robotalks/linkstack/pkg/session"
	"github.com/robotalks/linkstack/pkg/transport"
)

// ErrNotConnected is reported by commands which need a link.
var ErrNotConnected = errors.New("not connected")

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// CodecID is the frame identifier of the codec used to send messages.
	CodecID byte
	Timeout time.Duration

	Shell    *ishell.Shell
	Config   *config.Config
	Registry *codec.Registry
	Loop     *ConnLoop
}

// ConnLoop is a running loop with an open link.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	URL    string

	Loop     *fx.Loop
	Endpoint *config.Endpoint
	Link     *link.Manager
	Client   *session.Client

	calls chan func()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	codecName  = "text"
	cmdTimeout = time.Second

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
		&StatsCmd,
		&CodecCmd,
		&SendCmd,
		&DoCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&codecName, "codec", codecName, "Codec for sending messages: binary, text, proto or cbor.")
	flag.DurationVar(&cmdTimeout, "timeout", cmdTimeout, "Command timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     cmdTimeout,

		Shell:  ishell.New(),
		Config: conf,
		Registry: msgs.Register(codec.NewRegistry()).
			Use(codec.Standard()...),
	}
	if id, ok := codec.FamilyID(codecName); ok {
		s.CodecID = id
	} else {
		s.CodecID, _ = codec.FamilyID("text")
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Call runs fn on the loop goroutine, which owns the link, and waits for
// its result.
func (l *ConnLoop) Call(fn func(*link.Manager) error, timeout time.Duration) error {
	errCh := make(chan error, 1)
	select {
	case l.calls <- func() { errCh <- fn(l.Link) }:
	case <-l.Ctx.Done():
		return l.Ctx.Err()
	}
	l.Loop.TriggerNext()
	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

func (l *ConnLoop) runCalls(cc fx.ControlContext) error {
	for {
		select {
		case fn := <-l.calls:
			fn()
		default:
			return nil
		}
	}
}

// DoCommand encodes msg with the selected codec and sends it.
func DoCommand(c *ishell.Context, msg codec.Message) error {
	s := ShellFrom(c)
	if s.Loop == nil {
		c.Err(ErrNotConnected)
		return ErrNotConnected
	}
	err := s.Loop.Call(func(m *link.Manager) error {
		f := link.NewOwnedFrame(0, m.Options().MaxFrame)
		if err := s.Registry.Encode(msg, s.CodecID, f); err != nil {
			return err
		}
		if err := m.Send(f); err != nil {
			return err
		}
		return m.Flush()
	}, s.Timeout)
	if err != nil {
		c.Err(err)
		return err
	}
	return nil
}

// DoRequest sends a session request and prints the reply.
func DoRequest(c *ishell.Context, id byte, body []byte) error {
	s := ShellFrom(c)
	if s.Loop == nil {
		c.Err(ErrNotConnected)
		return ErrNotConnected
	}
	cmd := s.Loop.Client.Do(id, body)
	s.Loop.Loop.TriggerNext()
	select {
	case res := <-cmd.ResultChan():
		if res.Err != nil {
			c.Err(res.Err)
			return res.Err
		}
		if s.OutputJSON {
			out, err := json.Marshal(map[string]string{
				"id":   fmt.Sprintf("%02x", res.ID),
				"body": hex.EncodeToString(res.Body),
			})
			if err != nil {
				c.Err(err)
				return err
			}
			c.Println(string(out))
			return nil
		}
		c.Printf("%02x % x\n", res.ID, res.Body)
	case <-time.After(s.Timeout + s.Loop.Client.Expiration):
		c.Err(fmt.Errorf("command timeout"))
		return context.DeadlineExceeded
	}
	return nil
}

func (s *Shell) printMessage(msg codec.Message) {
	if s.OutputJSON {
		if a, ok := msg.(codec.ProtoAdapter); ok {
			if out, err := json.Marshal(a.Serializable()); err == nil {
				s.Shell.Printf("{%q:%s}\n", msg.Name(), out)
				return
			}
		}
	}
	s.Shell.Println(codec.Format(msg))
}

// HandleFrame implements link.FrameHandler for codec frames.
func (s *Shell) HandleFrame(ctx context.Context, f *link.Frame, reply *link.Frame) bool {
	msg, err := s.Registry.Decode(f)
	if err != nil {
		s.Shell.Printf("%s: %v\n", f, err)
		return false
	}
	s.printMessage(msg)
	return false
}

// Connect opens the link at url.
func (s *Shell) Connect(url string) error {
	conf := *s.Config
	conf.URL = url
	connLoop := &ConnLoop{URL: url, calls: make(chan func(), 1)}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	ep, err := conf.Open(connLoop.Ctx)
	if err != nil {
		connLoop.Cancel()
		return err
	}
	if connLoop.Link, err = conf.NewManager(ep); err != nil {
		ep.Close()
		connLoop.Cancel()
		return err
	}
	connLoop.Endpoint = ep
	connLoop.Client = session.NewClient(connLoop.Link, conf.MaxFrame)
	mux := link.NewFrameMux().Handle(s, s.Registry.FrameIDs()...)
	mux.Default = connLoop.Client
	connLoop.Link.Handler = mux

	connLoop.Loop = fx.NewLoop()
	connLoop.Loop.Interval = conf.Interval
	connLoop.Loop.Add(ep, connLoop.Link, connLoop.Client).
		AddController(fx.PrLvControl, fx.ControlFunc(connLoop.runCalls))
	if s.Loop != nil {
		s.Disconnect()
	}
	s.Loop = connLoop
	go func() {
		if err := connLoop.Loop.Run(connLoop.Ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Shell.Printf("%s: link stopped: %v\n", url, err)
		}
		connLoop.Cancel()
	}()
	go s.printEvents(connLoop)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

func (s *Shell) printEvents(l *ConnLoop) {
	for {
		select {
		case <-l.Ctx.Done():
			return
		case ev := <-l.Client.EventChan():
			s.Shell.Printf("event %02x seq=%d % x\n", ev.ID, ev.Seq, ev.Body)
		}
	}
}

// Disconnect closes the current link.
func (s *Shell) Disconnect() {
	if s.Loop != nil {
		s.Loop.Cancel()
		s.Loop.Endpoint.Close()
		s.Loop = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.URL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.URL)
		}
		if err := s.Connect(s.Config.URL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.URL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseBytes parses hex bytes given as separate arguments or one string.
func ParseBytes(args []string) ([]byte, error) {
	return hex.DecodeString(strings.Join(args, ""))
}

var (
	// ConnectCmd opens a link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.URL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := transport.SerialPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// StatsCmd prints link statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			var stats link.Stats
			var state link.State
			var current string
			err := s.Loop.Call(func(m *link.Manager) error {
				stats, state = m.Stats(), m.State()
				if p := m.Current(); p != nil {
					current = p.Name()
				}
				return nil
			}, s.Timeout)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, _ := json.Marshal(stats)
				c.Println(string(out))
				return
			}
			c.Printf("%s %s %+v\n", state, current, stats)
		}),
	}

	// CodecCmd shows or selects the codec for sending messages.
	CodecCmd = ishell.Cmd{
		Name: "codec",
		Help: "[binary|text|proto|cbor]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Printf("%c\n", s.CodecID)
				return
			}
			id, ok := codec.FamilyID(c.Args[0])
			if !ok {
				c.Err(fmt.Errorf("unknown codec %q", c.Args[0]))
				return
			}
			s.CodecID = id
		},
	}

	// SendCmd sends a message given in text form.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "NAME [PARAM=VALUE ...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			msg, err := ShellFrom(c).Registry.Parse(strings.Join(c.Args, " "))
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, msg)
		}),
	}

	// DoCmd sends a raw session request.
	DoCmd = ishell.Cmd{
		Name: "do",
		Help: "ID [HEX ...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			id, err := strconv.ParseUint(c.Args[0], 16, 8)
			if err != nil || byte(id)&session.EventFlag != 0 {
				c.Err(fmt.Errorf("invalid ID %q", c.Args[0]))
				return
			}
			body, err := ParseBytes(c.Args[1:])
			if err != nil {
				c.Err(fmt.Errorf("invalid body: %v", err))
				return
			}
			DoRequest(c, byte(id), body)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(config.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
