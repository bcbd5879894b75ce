package pgwire

import (
	"fmt"
	"time"
)

// Clock is a small example CustomCodec implementation, adapted from the
// teacher's driver.Scanner-based Clock type into the hook spec §4.6
// describes for types this package's built-in Codec set does not cover
// (PostgreSQL's `time without time zone`, here).
type Clock struct {
	Hour, Minute, Second, Nanosecond int
}

// FromPostgresText implements CustomCodec.
func (c *Clock) FromPostgresText(raw []byte) error {
	t, err := time.Parse("15:04:05", string(raw))
	if err != nil {
		return wrapErr(KindInvalidNumber, err, "parsing time value %q", raw)
	}
	hour, min, sec := t.Clock()
	*c = Clock{Hour: hour, Minute: min, Second: sec, Nanosecond: t.Nanosecond()}
	return nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%09d", c.Hour, c.Minute, c.Second, c.Nanosecond)
}

// ClockCodec adapts a Clock's CustomCodec to the Codec interface so it can
// sit in a Field list alongside the built-in codecs. Null decodes to the
// zero Clock.
type ClockCodec struct {
	Dst *Clock
}

func (c ClockCodec) DecodeText(raw []byte, isNull bool) error {
	if isNull {
		*c.Dst = Clock{}
		return nil
	}
	return c.Dst.FromPostgresText(raw)
}
