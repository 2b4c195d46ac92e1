// Package idgen generates the job and result identifiers kush hands
// out for every resolution and action run. Two generators are
// provided: a Sonyflake-style 64-bit monotonic ID (compact, sortable,
// suitable for log lines and bucket keys) and a time-ordered 128-bit
// UUID (for interoperating with external systems that expect one).
package idgen

import (
	"encoding/base32"
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces a new identifier on each call.
type Generator interface {
	NewID() (string, error)
}

// crockford is the Crockford base32 alphabet: case-insensitive,
// avoids the letters I, L, O and U to cut down on
// transcription mistakes when an ID is read off a terminal.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordEncoding = base32.NewEncoding(crockford).WithPadding(base32.NoPadding)

// epoch anchors the Sonyflake-style timestamp field so 41 bits of
// milliseconds comfortably outlive the tool's expected lifetime.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	timestampBits = 41
	machineBits   = 16
	sequenceBits  = 6

	sequenceMask = 1<<sequenceBits - 1
)

// SonyflakeGenerator produces 64-bit IDs laid out as:
//
//	41 bits milliseconds since epoch | 16 bits machine ID | 6 bits sequence
//
// The machine ID is derived once by folding an FNV-1a hash of the
// local hostname down to 16 bits (XOR of its two halves), so that two
// processes on different hosts issuing IDs in the same millisecond
// don't collide; within one process a monotonic sequence counter
// disambiguates IDs issued in the same millisecond.
type SonyflakeGenerator struct {
	machineID uint16

	mu       sync.Mutex
	lastTick int64
	sequence uint16
}

// NewSonyflakeGenerator returns a SonyflakeGenerator whose machine ID
// is derived from the local hostname.
func NewSonyflakeGenerator() (*SonyflakeGenerator, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("idgen: reading hostname: %w", err)
	}
	return &SonyflakeGenerator{machineID: foldHostname(host)}, nil
}

func foldHostname(host string) uint16 {
	h := fnv.New32a()
	h.Write([]byte(host))
	sum := h.Sum32()
	return uint16(sum>>16) ^ uint16(sum&0xffff)
}

// NewID implements Generator.
func (g *SonyflakeGenerator) NewID() (string, error) {
	id, err := g.next()
	if err != nil {
		return "", err
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(id)
		id >>= 8
	}
	return crockfordEncoding.EncodeToString(buf[:]), nil
}

func (g *SonyflakeGenerator) next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick := time.Since(epoch).Milliseconds()
	if tick < 0 {
		return 0, fmt.Errorf("idgen: system clock before generator epoch")
	}
	if tick == g.lastTick {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			// Sequence space for this millisecond is exhausted; spin
			// forward to the next tick rather than collide.
			for tick <= g.lastTick {
				time.Sleep(time.Millisecond)
				tick = time.Since(epoch).Milliseconds()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTick = tick

	if tick >= 1<<timestampBits {
		return 0, fmt.Errorf("idgen: timestamp field overflowed (%d ticks since epoch)", tick)
	}

	id := uint64(tick)<<(machineBits+sequenceBits) |
		uint64(g.machineID)<<sequenceBits |
		uint64(g.sequence)
	return id, nil
}

// UUIDGenerator produces time-ordered (version 7) UUIDs, for IDs that
// need to interoperate with systems expecting the standard 128-bit
// form rather than kush's compact Sonyflake-style one.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID implements Generator.
func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idgen: generating uuidv7: %w", err)
	}
	return id.String(), nil
}
