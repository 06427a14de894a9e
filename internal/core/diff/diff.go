// Package diff compares two results of the same logical operation and
// reports the field paths where they diverge. Values are normalized through
// a JSON round-trip into a closed kind set (missing, primitive, array, map)
// and walked by a visitor; the comparison itself never fails
package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RootPath is the path reported when the values themselves cannot be
// compared (normalization failure, incompatible top-level kinds).
const RootPath = "."

// NumberComparator decides numeric equality. The default rounds both sides
// to a fixed number of fractional digits first, so representation noise in
// currency/quantity values does not count as a divergence.
type NumberComparator func(a, b decimal.Decimal) bool

// DefaultPlaces is the fractional precision of the default comparator,
// matching the two-decimal currency/quantity convention of the migrated
// domain.
const DefaultPlaces int32 = 2

// Differ compares normalized values. The zero value is not usable; call New.
type Differ struct {
	numEq NumberComparator
}

// Option mutates a Differ during New.
type Option func(*Differ)

// WithPlaces sets the fractional rounding of the default comparator.
func WithPlaces(places int32) Option {
	return func(d *Differ) {
		d.numEq = roundedEq(places)
	}
}

// WithNumberComparator replaces the numeric rule entirely, for domains with
// other precision needs.
func WithNumberComparator(eq NumberComparator) Option {
	return func(d *Differ) { d.numEq = eq }
}

// New returns a Differ with the default two-decimal numeric tolerance.
func New(opts ...Option) *Differ {
	d := &Differ{numEq: roundedEq(DefaultPlaces)}
	for _, o := range opts {
		o(d)
	}
	return d
}

func roundedEq(places int32) NumberComparator {
	return func(a, b decimal.Decimal) bool {
		return a.Round(places).Equal(b.Round(places))
	}
}

// Compare returns the mismatching leaf field paths between primary and
// shadow. An empty slice means the results agree. Incomparable inputs yield
// a single mismatch at RootPath rather than an error.
func (d *Differ) Compare(primary, shadow any) []string {
	a, errA := normalize(primary)
	b, errB := normalize(shadow)
	if errA != nil || errB != nil {
		return []string{RootPath}
	}
	var out []string
	d.walk("", a, b, &out)
	return out
}

// normalize round-trips v through JSON so every value lands in the closed
// kind set: nil, bool, string, json.Number, []any, map[string]any.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Differ) walk(path string, a, b any, out *[]string) {
	// nil covers JSON null, absent keys, and Go nil pointers alike: the two
	// implementations may use different missing-value sentinels
	if a == nil && b == nil {
		return
	}
	if a == nil || b == nil {
		*out = append(*out, leaf(path))
		return
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			*out = append(*out, leaf(path))
			return
		}
		d.walkMap(path, av, bv, out)
	case []any:
		bv, ok := b.([]any)
		if !ok {
			*out = append(*out, leaf(path))
			return
		}
		if len(av) != len(bv) {
			// a length mismatch is one finding at the array itself, not a
			// flood of per-index findings
			*out = append(*out, leaf(path))
			return
		}
		for i := range av {
			d.walk(fmt.Sprintf("%s[%d]", path, i), av[i], bv[i], out)
		}
	case json.Number:
		bv, ok := b.(json.Number)
		if !ok || !d.numbersEqual(av, bv) {
			*out = append(*out, leaf(path))
		}
	case string:
		bv, ok := b.(string)
		if !ok || !stringsEqual(av, bv) {
			*out = append(*out, leaf(path))
		}
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			*out = append(*out, leaf(path))
		}
	default:
		// unknown kind slipped through normalization; count it rather than
		// guessing at equality
		*out = append(*out, leaf(path))
	}
}

func (d *Differ) walkMap(path string, a, b map[string]any, out *[]string) {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		// a key absent on one side normalizes to nil, which the nil/nil rule
		// then treats as equal to an explicit null on the other
		d.walk(join(path, k), a[k], b[k], out)
	}
}

func (d *Differ) numbersEqual(a, b json.Number) bool {
	da, errA := decimal.NewFromString(a.String())
	db, errB := decimal.NewFromString(b.String())
	if errA != nil || errB != nil {
		return a.String() == b.String()
	}
	return d.numEq(da, db)
}

// stringsEqual compares timestamps by epoch when both sides parse as
// RFC 3339, so differing zone renderings of the same instant agree.
func stringsEqual(a, b string) bool {
	if a == b {
		return true
	}
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.UnixNano() == tb.UnixNano()
	}
	return false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func leaf(path string) string {
	if path == "" {
		return RootPath
	}
	return path
}
