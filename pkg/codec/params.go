package codec

import (
	"fmt"
	"strconv"
)

// ParamTable is the ordered list of parameter names of a message type.
// It's built once per type and shared by all its messages.
type ParamTable struct {
	names []string
	index map[string]int
}

// NewParamTable creates a ParamTable. Names are rendered in the given order.
func NewParamTable(names ...string) *ParamTable {
	t := &ParamTable{names: names, index: make(map[string]int, len(names))}
	for n, name := range names {
		if _, exist := t.index[name]; exist {
			panic("codec: duplicated parameter " + name)
		}
		t.index[name] = n
	}
	return t
}

// Names returns the parameter names in order.
func (t *ParamTable) Names() []string {
	return t.names
}

// Index returns the position of name or -1.
func (t *ParamTable) Index(name string) int {
	if n, ok := t.index[name]; ok {
		return n
	}
	return -1
}

// Params holds parameter values of one message.
type Params struct {
	table  *ParamTable
	values []string
	set    []bool
}

// NewParams creates empty Params for table.
func NewParams(table *ParamTable) *Params {
	return &Params{
		table:  table,
		values: make([]string, len(table.names)),
		set:    make([]bool, len(table.names)),
	}
}

// Table returns the parameter table.
func (p *Params) Table() *ParamTable {
	return p.table
}

func (p *Params) indexOf(name string) (int, error) {
	n := p.table.Index(name)
	if n < 0 {
		return n, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return n, nil
}

// Set assigns a raw value.
func (p *Params) Set(name, value string) error {
	n, err := p.indexOf(name)
	if err != nil {
		return err
	}
	p.values[n], p.set[n] = value, true
	return nil
}

// Get returns the raw value and whether it's set.
func (p *Params) Get(name string) (string, bool) {
	n := p.table.Index(name)
	if n < 0 || !p.set[n] {
		return "", false
	}
	return p.values[n], true
}

// Has tells if name is set.
func (p *Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// SetInt assigns an integer value.
func (p *Params) SetInt(name string, v int64) error {
	return p.Set(name, strconv.FormatInt(v, 10))
}

// SetUint assigns an unsigned integer value.
func (p *Params) SetUint(name string, v uint64) error {
	return p.Set(name, strconv.FormatUint(v, 10))
}

// SetFloat assigns a floating point value with the shortest representation
// for bits precision.
func (p *Params) SetFloat(name string, v float64, bits int) error {
	return p.Set(name, strconv.FormatFloat(v, 'g', -1, bits))
}

// SetBool assigns a boolean as 0 or 1.
func (p *Params) SetBool(name string, v bool) error {
	if v {
		return p.Set(name, "1")
	}
	return p.Set(name, "0")
}

// Int parses the value of name into *v if set.
func (p *Params) Int(name string, v *int64, bits int) error {
	s, ok := p.Get(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return fmt.Errorf("%w: %s=%s", ErrMalformed, name, s)
	}
	*v = n
	return nil
}

// Uint parses the value of name into *v if set.
func (p *Params) Uint(name string, v *uint64, bits int) error {
	s, ok := p.Get(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return fmt.Errorf("%w: %s=%s", ErrMalformed, name, s)
	}
	*v = n
	return nil
}

// Float parses the value of name into *v if set.
func (p *Params) Float(name string, v *float64, bits int) error {
	s, ok := p.Get(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return fmt.Errorf("%w: %s=%s", ErrMalformed, name, s)
	}
	*v = f
	return nil
}

// Bool parses the value of name into *v if set.
func (p *Params) Bool(name string, v *bool) error {
	s, ok := p.Get(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("%w: %s=%s", ErrMalformed, name, s)
	}
	*v = b
	return nil
}
