package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/robotalks/linkstack/pkg/codec"
	"github.com/robotalks/linkstack/pkg/config"
	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/msgs"
	"github.com/robotalks/linkstack/pkg/session"
	"github.com/robotalks/linkstack/pkg/transport"
)

var (
	listPorts     bool
	statsInterval = 10 * time.Second
)

func init() {
	config.SetupFlags()
	flag.BoolVar(&listPorts, "ports", listPorts, "List serial ports and exit.")
	flag.DurationVar(&statsInterval, "stats", statsInterval, "Interval of link statistics, 0 to disable.")
}

// record is a received frame posted to the loop.
type record struct {
	protocol string
	text     string
}

type monitor struct {
	registry *codec.Registry
	link     *link.Manager
	loop     *framework.Loop

	lastStats time.Time
}

func (m *monitor) describe(f *link.Frame) string {
	if m.registry.Codec(f.ID) != nil {
		msg, err := m.registry.Decode(f)
		if err != nil {
			return fmt.Sprintf("%s: bad message: %v", f, err)
		}
		return codec.Format(msg)
	}
	seq, body, err := session.Decode(f)
	if err != nil {
		return f.String()
	}
	kind := "packet"
	if f.ID&session.EventFlag != 0 {
		kind = "event"
	}
	return fmt.Sprintf("%s %02x seq=%d % x", kind, f.ID&^session.EventFlag, seq, body)
}

// HandleFrame implements link.FrameHandler.
func (m *monitor) HandleFrame(ctx context.Context, f *link.Frame, reply *link.Frame) bool {
	rec := record{text: m.describe(f)}
	if p := m.link.Last(); p != nil {
		rec.protocol = p.Name()
	}
	m.loop.PostMessage(rec)
	m.loop.TriggerNext()
	return false
}

// StateChanged implements link.StateNotifier.
func (m *monitor) StateChanged(s link.State, p link.Protocol) {
	if s == link.StateMatched {
		log.Printf("link matched %s", p.Name())
	}
}

// Control implements framework.Controller.
func (m *monitor) Control(cc framework.ControlContext) error {
	for _, msg := range cc.Messages() {
		if rec, ok := msg.(record); ok {
			log.Printf("[%s] %s", rec.protocol, rec.text)
		}
	}
	if statsInterval > 0 && cc.Time().Sub(m.lastStats) >= statsInterval {
		if !m.lastStats.IsZero() {
			log.Printf("stats %+v", m.link.Stats())
		}
		m.lastStats = cc.Time()
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if listPorts {
		ports, err := transport.SerialPorts()
		if err != nil {
			log.Fatalln(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	conf := config.Default()
	runner := framework.NewRunner().HandleSignals()
	ep := conf.MustOpen(runner.Context)
	defer ep.Close()

	mon := &monitor{
		registry: msgs.Register(codec.NewRegistry()).
			Use(codec.Standard()...),
		link: conf.MustNewManager(ep),
		loop: framework.NewLoop(),
	}
	mon.link.Handler = mon
	mon.link.Notifier = mon
	mon.loop.Interval = conf.Interval
	mon.loop.Add(ep, mon.link).AddController(framework.PrLvControl, mon)

	runner.Go(framework.NamedRun("loop", mon.loop))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
	log.Printf("stats %+v", mon.link.Stats())
}
