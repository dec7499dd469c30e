package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ItemIDHookFunc defines the signature for the NewItemID test hook.
// It returns an ItemID and a boolean indicating whether to override the default generation.
type ItemIDHookFunc func() (id ItemID, override bool)

// NewItemIDHook is a package-level variable that tests can set to override NewItemID behavior.
var NewItemIDHook ItemIDHookFunc

// itemIDRandomBits is the number of low bits filled with random data.
// Milliseconds since epoch fit in 42 bits until the year 2109, so the id stays
// below 2^53 and survives a round trip through a JavaScript number.
const itemIDRandomBits = 10

// ItemID identifies a line item within an editing session.
// It is serialised as a plain JSON number.
type ItemID int64

// NewItemID mints a new ItemID from the wall clock plus random low bits.
func NewItemID() ItemID {
	if NewItemIDHook != nil {
		if id, override := NewItemIDHook(); override {
			return id
		}
	}

	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// fallback to the clock alone if random fails
		buf = [2]byte{}
	}
	low := int64(binary.BigEndian.Uint16(buf[:])) & (1<<itemIDRandomBits - 1)
	return ItemID(time.Now().UnixMilli()<<itemIDRandomBits | low)
}

// ParseItemID parses the decimal representation of an ItemID.
// Fractional values are accepted and truncated.
func ParseItemID(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ItemID(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("invalid ItemID: not a number")
	}
	return ItemID(math.Trunc(f)), nil
}

// String returns the decimal representation of the ItemID.
func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MarshalJSON marshals the ItemID as a JSON number.
func (id ItemID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseItemID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
