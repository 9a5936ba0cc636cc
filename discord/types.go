package discord

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/concord-labs/concord/concordjson"
)

const (
	// Epoch is the millisecond timestamp the snowflake timestamp field
	// counts from (2015-01-01T00:00:00Z).
	Epoch = 1420070400000

	snowflakeTimestampShift = 22
	snowflakeWorkerShift    = 17
	snowflakeProcessShift   = 12

	snowflakeWorkerMask    = 0x3E0000
	snowflakeProcessMask   = 0x1F000
	snowflakeIncrementMask = 0xFFF
)

var null = []byte("null")

// Snowflake is the unique, time-ordered identifier used by every entity.
// It is transferred on the wire as a decimal string as values exceed the
// safe integer range of some encoders.
type Snowflake int64

// NewSnowflake packs the component fields back into a snowflake.
// Only the least significant 5, 5 and 12 bits of worker, process and
// increment are used respectively.
func NewSnowflake(timestamp time.Time, worker, process uint8, increment uint16) Snowflake {
	return Snowflake(
		((timestamp.UnixMilli() - Epoch) << snowflakeTimestampShift) |
			(int64(worker&0x1F) << snowflakeWorkerShift) |
			(int64(process&0x1F) << snowflakeProcessShift) |
			int64(increment&0xFFF),
	)
}

// ParseSnowflake parses a decimal string into a snowflake.
func ParseSnowflake(value string) (Snowflake, error) {
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse snowflake: %w", err)
	}

	return Snowflake(i), nil
}

func (s *Snowflake) IsNil() bool {
	return *s == 0
}

// Time returns the creation time embedded in the snowflake.
func (s Snowflake) Time() time.Time {
	msec := (int64(s) >> snowflakeTimestampShift) + Epoch

	return time.Unix(0, msec*int64(time.Millisecond))
}

// Worker returns the 5 bit internal worker id.
func (s Snowflake) Worker() uint8 {
	return uint8((int64(s) & snowflakeWorkerMask) >> snowflakeWorkerShift)
}

// Process returns the 5 bit internal process id.
func (s Snowflake) Process() uint8 {
	return uint8((int64(s) & snowflakeProcessMask) >> snowflakeProcessShift)
}

// Increment returns the 12 bit per-process increment.
func (s Snowflake) Increment() uint16 {
	return uint16(int64(s) & snowflakeIncrementMask)
}

func toSnowflake(b []byte, s *Snowflake) error {
	if bytes.Equal(b, null) {
		*s = 0

		return nil
	}

	if len(b) >= 2 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to unmarshal snowflake: %v", err)
	}

	*s = Snowflake(i)

	return nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, s)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(s)), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Int64 is an int64 that tolerates both string and number wire forms.
type Int64 int64

func (in *Int64) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to unmarshal json: %v", err)
	}

	*in = Int64(i)

	return nil
}

func (in Int64) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(in)), nil
}

func (in Int64) String() string {
	return strconv.FormatInt(int64(in), 10)
}

func int64ToStringBytes(s int64) []byte {
	buf := make([]byte, 0, 24)

	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, s, 10)
	buf = append(buf, '"')

	return buf
}

type Timestamp string

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == "" {
		return null, nil
	}

	return concordjson.Marshal(string(t))
}

type List[T any] []T

func (l List[T]) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}

	return concordjson.Marshal([]T(l))
}

type SnowflakeList = List[Snowflake]
type StringList = List[string]
