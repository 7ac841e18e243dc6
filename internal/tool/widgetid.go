package tool

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// newWidgetID produces a widget_<unix-ms>_<0..999> id. The suffix is
// derived from a fresh UUIDv4's low bits rather than a bare math/rand
// draw, so id generation never needs its own seeded PRNG state.
func newWidgetID(unixMillis int64) string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint16(u[14:16]) % 1000
	return fmt.Sprintf("widget_%d_%d", unixMillis, suffix)
}
