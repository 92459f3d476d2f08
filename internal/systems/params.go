package systems

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// Params is a flat set of named physical quantities. Numeric entries are
// vectors (a scalar is a vector of length one); selector entries are
// strings. The zero value is an empty, usable set.
type Params struct {
	Values  map[string][]float64 `json:"values,omitempty"`
	Options map[string]string    `json:"options,omitempty"`
}

// With returns a copy of p with name set to vals.
func (p Params) With(name string, vals ...float64) Params {
	c := p.Clone()
	c.Values[name] = append([]float64(nil), vals...)
	return c
}

// WithOption returns a copy of p with the selector name set to val.
func (p Params) WithOption(name, val string) Params {
	c := p.Clone()
	c.Options[name] = val
	return c
}

func (p Params) Clone() Params {
	c := Params{
		Values:  make(map[string][]float64, len(p.Values)),
		Options: make(map[string]string, len(p.Options)),
	}
	for k, v := range p.Values {
		c.Values[k] = append([]float64(nil), v...)
	}
	for k, v := range p.Options {
		c.Options[k] = v
	}
	return c
}

// Merge returns p overridden by every entry of over.
func (p Params) Merge(over Params) Params {
	c := p.Clone()
	for k, v := range over.Values {
		c.Values[k] = append([]float64(nil), v...)
	}
	for k, v := range over.Options {
		c.Options[k] = v
	}
	return c
}

// Validate reports entries of p that defaults does not know about, or that
// have the wrong kind.
func (p Params) Validate(defaults Params) error {
	for _, name := range p.Names() {
		_, isValue := defaults.Values[name]
		_, isOption := defaults.Options[name]
		_, gotValue := p.Values[name]
		switch {
		case !isValue && !isOption:
			return dynamo.Configf("parameter", name, "unknown for this model")
		case isValue && !gotValue:
			return dynamo.Configf(name, p.Options[name], "expected a number")
		case isOption && gotValue:
			return dynamo.Configf(name, p.Values[name], "expected one of the selector names")
		}
	}
	return nil
}

func (p Params) Names() []string {
	names := make([]string, 0, len(p.Values)+len(p.Options))
	for k := range p.Values {
		names = append(names, k)
	}
	for k := range p.Options {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p Params) Scalar(name string) (float64, error) {
	v, ok := p.Values[name]
	if !ok {
		return 0, dynamo.Configf(name, nil, "missing")
	}
	if len(v) != 1 {
		return 0, dynamo.Configf(name, v, "expected a scalar")
	}
	if math.IsNaN(v[0]) || math.IsInf(v[0], 0) {
		return 0, dynamo.Configf(name, v[0], "must be finite")
	}
	return v[0], nil
}

// Vector returns the entry name, which must hold exactly n finite values.
// n < 0 accepts any non-empty length.
func (p Params) Vector(name string, n int) ([]float64, error) {
	v, ok := p.Values[name]
	if !ok {
		return nil, dynamo.Configf(name, nil, "missing")
	}
	if (n >= 0 && len(v) != n) || len(v) == 0 {
		return nil, dynamo.Configf(name, v, "expected %d values, got %d", n, len(v))
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, dynamo.Configf(name, v, "must be finite")
		}
	}
	return append([]float64(nil), v...), nil
}

func (p Params) Option(name string) (string, error) {
	v, ok := p.Options[name]
	if !ok {
		return "", dynamo.Configf(name, nil, "missing")
	}
	return v, nil
}

// SetIndexed writes val into element idx of the vector name, in place.
func (p Params) SetIndexed(name string, idx int, val float64) error {
	v, ok := p.Values[name]
	if !ok {
		return dynamo.Configf("parameter", name, "unknown")
	}
	if idx < 0 || idx >= len(v) {
		return dynamo.Configf(name, idx, "index out of range for %d values", len(v))
	}
	v[idx] = val
	return nil
}

// Fingerprint is a stable digest of the parameter set, used as a cache key.
func (p Params) Fingerprint() string {
	var b strings.Builder
	for _, name := range p.Names() {
		b.WriteString(name)
		b.WriteByte('=')
		if v, ok := p.Values[name]; ok {
			for i, x := range v {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
			}
		} else {
			b.WriteString(strconv.Quote(p.Options[name]))
		}
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (p Params) String() string {
	parts := make([]string, 0, len(p.Values)+len(p.Options))
	for _, name := range p.Names() {
		if v, ok := p.Values[name]; ok {
			if len(v) == 1 {
				parts = append(parts, fmt.Sprintf("%s=%g", name, v[0]))
			} else {
				parts = append(parts, fmt.Sprintf("%s=%v", name, v))
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, p.Options[name]))
	}
	return strings.Join(parts, " ")
}

// UnmarshalYAML accepts a flat mapping whose values are numbers, number
// sequences or selector strings.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("params: expected a mapping, got %s", node.Tag)
	}
	p.Values = make(map[string][]float64)
	p.Options = make(map[string]string)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch val.Kind {
		case yaml.ScalarNode:
			if f, err := strconv.ParseFloat(val.Value, 64); err == nil {
				p.Values[key] = []float64{f}
			} else {
				p.Options[key] = val.Value
			}
		case yaml.SequenceNode:
			var vals []float64
			if err := val.Decode(&vals); err != nil {
				return fmt.Errorf("params: %s: %w", key, err)
			}
			p.Values[key] = vals
		default:
			return fmt.Errorf("params: %s: unsupported value at line %d", key, val.Line)
		}
	}
	return nil
}

func (p Params) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(p.Values)+len(p.Options))
	for k, v := range p.Values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	for k, v := range p.Options {
		out[k] = v
	}
	return out, nil
}

// reader collects the first error while a constructor pulls parameters.
type reader struct {
	p   Params
	err error
}

func (r *reader) scalar(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.p.Scalar(name)
	r.err = err
	return v
}

func (r *reader) vector(name string, n int) []float64 {
	if r.err != nil {
		return make([]float64, max(n, 0))
	}
	v, err := r.p.Vector(name, n)
	if err != nil {
		r.err = err
		return make([]float64, max(n, 0))
	}
	return v
}

func (r *reader) modulation(name string) Modulation {
	if r.err != nil {
		return ModCos
	}
	s, err := r.p.Option(name)
	if err != nil {
		r.err = err
		return ModCos
	}
	m, err := ParseModulation(s)
	r.err = err
	return m
}

func (r *reader) membrane(name string) Membrane {
	if r.err != nil {
		return MembraneTop
	}
	s, err := r.p.Option(name)
	if err != nil {
		r.err = err
		return MembraneTop
	}
	m, err := ParseMembrane(s)
	r.err = err
	return m
}

func (r *reader) option(name string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.p.Option(name)
	r.err = err
	return s
}

// check records a domain violation on an already-read value.
func (r *reader) check(ok bool, name string, value any, reason string) {
	if r.err == nil && !ok {
		r.err = dynamo.Configf(name, value, "%s", reason)
	}
}
