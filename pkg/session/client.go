package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
)

// DefaultExpiration is the default expiration expecting a reply.
const DefaultExpiration = 1 * time.Second

// Result is the result of a command using Do.
type Result struct {
	Err  error
	ID   byte
	Body []byte
}

// Event is an unsolicited message from the peer.
type Event struct {
	ID   byte
	Seq  Seq
	Body []byte
}

// Command represents a pending command waiting for reply.
type Command struct {
	id         byte
	body       []byte
	requestSeq Seq
	expireAt   time.Time
	resultCh   chan Result
	next       *Command
}

// RequestSeq returns the request sequence number.
func (c *Command) RequestSeq() Seq {
	return c.requestSeq
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

func (c *Command) done(r Result) {
	c.resultCh <- r
	close(c.resultCh)
}

type commandList struct {
	head *Command
	tail *Command
}

func (l *commandList) push(cmd *Command) {
	if l.head == nil {
		l.head = cmd
	} else {
		l.tail.next = cmd
	}
	l.tail = cmd
}

func (l *commandList) pop() *Command {
	cmd := l.head
	if cmd != nil {
		if l.head = cmd.next; l.head == nil {
			l.tail = nil
		}
		cmd.next = nil
	}
	return cmd
}

// Client is the requester side of a session. Do may be called from any
// goroutine, the frames are handed to the Sender from Flush, which must run
// on the goroutine pumping the link.
type Client struct {
	Sender     link.Sender
	Expiration time.Duration

	seq      Seq
	eventCh  chan Event
	frame    *link.Frame
	outgoing commandList
	pending  commandList
	lock     sync.Mutex
}

// NewClient creates a Client sending through sender. maxFrame bounds the
// request size.
func NewClient(sender link.Sender, maxFrame int) *Client {
	return &Client{
		Sender:     sender,
		Expiration: DefaultExpiration,
		seq:        NewSeq(),
		eventCh:    make(chan Event, 16),
		frame:      link.NewOwnedFrame(0, maxFrame),
	}
}

// EventChan retrieves the event reporting chan.
func (c *Client) EventChan() <-chan Event {
	return c.eventCh
}

// Do queues a request and returns a Command for the result.
func (c *Client) Do(id byte, body []byte) *Command {
	return c.DoAt(id, body, time.Now())
}

// DoAt is Do with the time the expiration is counted from.
func (c *Client) DoAt(id byte, body []byte, now time.Time) *Command {
	cmd := &Command{
		id:       id &^ EventFlag,
		body:     append([]byte(nil), body...),
		expireAt: now.Add(c.Expiration),
		resultCh: make(chan Result, 1),
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	cmd.requestSeq = c.seq
	c.seq = c.seq.Next()
	c.outgoing.push(cmd)
	return cmd
}

// Flush sends queued requests.
func (c *Client) Flush() error {
	for {
		c.lock.Lock()
		cmd := c.outgoing.pop()
		if cmd == nil {
			c.lock.Unlock()
			return nil
		}
		err := Encode(c.frame, cmd.id, cmd.requestSeq, cmd.body)
		if err == nil {
			err = c.Sender.Send(c.frame)
		}
		if err == nil {
			c.pending.push(cmd)
		}
		c.lock.Unlock()
		if err != nil {
			cmd.done(Result{Err: err})
		}
	}
}

// Expire fails pending commands expired at now.
func (c *Client) Expire(now time.Time) {
	var expired commandList
	c.lock.Lock()
	for c.pending.head != nil && !c.pending.head.expireAt.After(now) {
		expired.push(c.pending.pop())
	}
	c.lock.Unlock()
	for cmd := expired.pop(); cmd != nil; cmd = expired.pop() {
		cmd.done(Result{Err: context.DeadlineExceeded})
	}
}

// HandleFrame implements link.FrameHandler.
func (c *Client) HandleFrame(ctx context.Context, f *link.Frame, reply *link.Frame) bool {
	seq, body, err := Decode(f)
	if err != nil || !seq.IsValid() {
		glog.Warningf("session: drop frame %02x: invalid sequence", f.ID)
		return false
	}
	body = append([]byte(nil), body...)
	if f.ID&EventFlag != 0 {
		select {
		case c.eventCh <- Event{ID: f.ID &^ EventFlag, Seq: seq, Body: body}:
		default:
			glog.Warningf("session: event %02x dropped", f.ID&^EventFlag)
		}
		return false
	}

	var skipped commandList
	c.lock.Lock()
	var found *Command
	for cmd := c.pending.head; cmd != nil; cmd = cmd.next {
		if cmd.requestSeq == seq {
			found = cmd
			break
		}
	}
	if found != nil {
		for cmd := c.pending.pop(); cmd != found; cmd = c.pending.pop() {
			skipped.push(cmd)
		}
	}
	c.lock.Unlock()
	if found == nil {
		glog.V(2).Infof("session: reply %02x for unknown seq %02x", f.ID, byte(seq))
		return false
	}
	for cmd := skipped.pop(); cmd != nil; cmd = skipped.pop() {
		cmd.done(Result{Err: ErrNoReply})
	}
	found.done(Result{ID: f.ID, Body: body})
	return false
}

// AddToLoop implements framework.LoopAdder.
func (c *Client) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvAcuate, framework.ControlFunc(func(cc framework.ControlContext) error {
		c.Expire(cc.Time())
		return c.Flush()
	}))
}
