package idp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// millisecondThreshold separates epoch seconds from epoch milliseconds:
// larger values are milliseconds.
const millisecondThreshold = 1e12

// latest instant accepted from a provider (year 9999).
const maxEpochSeconds = 253402300799

var ErrInvalidTimestamp = errors.New("invalid timestamp")

type timestampKind int

const (
	kindNone timestampKind = iota
	kindEpoch
	kindTime
	kindRaw
)

// Timestamp is a provider creation instant in whatever shape the
// provider reports it: epoch seconds, epoch milliseconds, an instant,
// or an unparsed string. The zero value is an absent timestamp.
type Timestamp struct {
	kind  timestampKind
	epoch float64
	t     time.Time
	raw   string
}

// Epoch wraps a numeric epoch value, seconds or milliseconds.
func Epoch(v float64) Timestamp {
	return Timestamp{kind: kindEpoch, epoch: v}
}

// Instant wraps an already resolved instant.
func Instant(t time.Time) Timestamp {
	return Timestamp{kind: kindTime, t: t}
}

// Raw wraps a provider string, parsed lazily by Parse.
func Raw(s string) Timestamp {
	return Timestamp{kind: kindRaw, raw: s}
}

// IsZero reports whether no timestamp was provided.
func (ts Timestamp) IsZero() bool {
	return ts.kind == kindNone
}

func (ts Timestamp) String() string {
	switch ts.kind {
	case kindEpoch:
		return strconv.FormatFloat(ts.epoch, 'f', -1, 64)
	case kindTime:
		return ts.t.Format(time.RFC3339Nano)
	case kindRaw:
		return ts.raw
	default:
		return "<none>"
	}
}

// Parse resolves the timestamp to a UTC instant.
func (ts Timestamp) Parse() (time.Time, error) {
	switch ts.kind {
	case kindEpoch:
		return fromEpoch(ts.epoch)
	case kindTime:
		if ts.t.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero instant", ErrInvalidTimestamp)
		}
		return ts.t.UTC(), nil
	case kindRaw:
		s := strings.TrimSpace(ts.raw)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(v)
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC1123, time.RFC1123Z} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts.raw)
	default:
		return time.Time{}, fmt.Errorf("%w: absent", ErrInvalidTimestamp)
	}
}

// Resolve is Parse with a fallback: anything that does not parse
// resolves to now() instead of failing.
func (ts Timestamp) Resolve(now func() time.Time) (time.Time, error) {
	t, err := ts.Parse()
	if err != nil {
		return now().UTC(), err
	}
	return t, nil
}

func fromEpoch(v float64) (time.Time, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, v)
	}
	if v > millisecondThreshold {
		v = v / 1000
	}
	if v > maxEpochSeconds {
		return time.Time{}, fmt.Errorf("%w: %v out of range", ErrInvalidTimestamp, v)
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*1e3).UTC(), nil
}
