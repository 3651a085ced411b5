// Package idcodec converts between the device's external hex-with-asterisk
// id representation and plain integers, so the rest of the core can work
// with integers while the original string form is preserved inside items.
package idcodec

import (
	"strconv"
	"strings"
	"sync"
)

// Codec memoizes string<->int conversions. Both directions are pure
// functions of their input; the cache only exists to avoid repeated hex
// parsing on hot paths (matcher scoring, imagined list renumbering).
type Codec struct {
	mu       sync.Mutex
	toString map[int]string
	toInt    map[string]int
}

// New returns a ready-to-use Codec.
func New() *Codec {
	return &Codec{
		toString: make(map[int]string),
		toInt:    make(map[string]int),
	}
}

// ToString returns the normalized (no "*" prefix) lowercase hex form of id.
func (c *Codec) ToString(id int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.toString[id]; ok {
		return s
	}
	s := strconv.FormatInt(int64(id), 16)
	c.toString[id] = s
	c.toInt[s] = id
	return s
}

// ToInt parses a wire-form id ("*A" or "A") into an integer.
func (c *Codec) ToInt(s string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.toInt[s]; ok {
		return id, nil
	}
	digits := strings.TrimPrefix(s, "*")
	id64, err := strconv.ParseInt(digits, 16, 64)
	if err != nil {
		return 0, err
	}
	id := int(id64)
	c.toInt[s] = id
	if _, ok := c.toString[id]; !ok {
		c.toString[id] = strconv.FormatInt(id64, 16)
	}
	return id, nil
}

// MustToInt is ToInt for inputs already known to be well-formed (e.g. ids
// freshly minted by this package). It panics on malformed input, which
// would indicate a bug in the caller rather than bad device data.
func (c *Codec) MustToInt(s string) int {
	id, err := c.ToInt(s)
	if err != nil {
		panic("idcodec: invalid id " + strconv.Quote(s) + ": " + err.Error())
	}
	return id
}

// Default is a package-wide memoized codec, for callers that don't need an
// isolated cache (e.g. short-lived CLI invocations).
var Default = New()

// ToString is Default.ToString.
func ToString(id int) string { return Default.ToString(id) }

// ToInt is Default.ToInt.
func ToInt(s string) (int, error) { return Default.ToInt(s) }
