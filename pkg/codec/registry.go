package codec

import (
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/link/protocols"
)

// Factory creates an empty message.
type Factory func() Message

type typeKey struct {
	group byte
	id    byte
}

// Registry maps message keys to factories and frame identifiers to codecs.
// Each link owns its Registry, there's no process-wide table.
type Registry struct {
	byType map[typeKey]Factory
	byName map[string]Factory
	codecs map[byte]Codec
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[typeKey]Factory),
		byName: make(map[string]Factory),
		codecs: make(map[byte]Codec),
	}
}

// Register adds message types.
func (r *Registry) Register(factories ...Factory) *Registry {
	for _, factory := range factories {
		msg := factory()
		r.byType[typeKey{group: msg.Group(), id: msg.ID()}] = factory
		if name := msg.Name(); name != "" {
			r.byName[name] = factory
		}
	}
	return r
}

// Use adds codecs, keyed by their frame identifiers.
func (r *Registry) Use(codecs ...Codec) *Registry {
	for _, c := range codecs {
		r.codecs[c.FrameID()] = c
	}
	return r
}

// Codec returns the codec for a frame identifier.
func (r *Registry) Codec(frameID byte) Codec {
	return r.codecs[frameID]
}

// New creates an empty message for key.
func (r *Registry) New(key Key) (Message, error) {
	var factory Factory
	if key.Name != "" {
		factory = r.byName[key.Name]
	} else {
		factory = r.byType[typeKey{group: key.Group, id: key.ID}]
	}
	if factory == nil {
		return nil, &UnknownTypeError{Key: key}
	}
	return factory(), nil
}

// Lookup creates an empty message by name.
func (r *Registry) Lookup(name string) (Message, error) {
	return r.New(Key{Name: name})
}

// Decode picks the codec by the frame identifier and decodes the message.
func (r *Registry) Decode(f *link.Frame) (Message, error) {
	c := r.codecs[f.ID]
	if c == nil {
		return nil, &UnknownCodecError{FrameID: f.ID}
	}
	key, err := c.Peek(f)
	if err != nil {
		return nil, err
	}
	msg, err := r.New(key)
	if err != nil {
		return nil, err
	}
	if err := c.Decode(f, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode writes msg into f using the codec registered for frameID.
func (r *Registry) Encode(msg Message, frameID byte, f *link.Frame) error {
	c := r.codecs[frameID]
	if c == nil {
		return &UnknownCodecError{FrameID: frameID}
	}
	return c.Encode(msg, f)
}

// Parse creates a message from its text form "NAME P1=v1 ...".
func (r *Registry) Parse(line string) (Message, error) {
	f := link.NewOwnedFrame(protocols.LineFrameID, len(line))
	if err := f.SetPayload([]byte(line)); err != nil {
		return nil, err
	}
	text := &Text{ID: protocols.LineFrameID}
	key, err := text.Peek(f)
	if err != nil {
		return nil, err
	}
	msg, err := r.New(key)
	if err != nil {
		return nil, err
	}
	if err := text.Decode(f, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Standard returns one codec of each family with default frame identifiers.
func Standard() []Codec {
	return []Codec{NewBinary(), NewText(), NewProto(), NewCBOR()}
}

var familyIDs = map[string]byte{
	"binary": DefaultBinaryFrameID,
	"text":   protocols.LineFrameID,
	"proto":  DefaultProtoFrameID,
	"cbor":   DefaultCBORFrameID,
}

// FamilyID resolves a codec family name to its default frame identifier.
func FamilyID(name string) (byte, bool) {
	id, ok := familyIDs[name]
	return id, ok
}

// FrameIDs returns the frame identifiers of registered codecs.
func (r *Registry) FrameIDs() []byte {
	ids := make([]byte, 0, len(r.codecs))
	for id := range r.codecs {
		ids = append(ids, id)
	}
	return ids
}
