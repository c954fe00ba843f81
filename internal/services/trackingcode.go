package services

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const trackingCodePrefix = "DLV"

// NewTrackingCode builds a human-readable code: prefix, base36 millisecond
// timestamp, base36 random suffix. Uniqueness is enforced by the database's
// unique index; creation retries with a fresh code on collision.
func NewTrackingCode() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// clock so code generation still proceeds.
		binary.BigEndian.PutUint32(buf[:], uint32(time.Now().UnixNano()))
	}
	suffix := strconv.FormatInt(int64(binary.BigEndian.Uint32(buf[:])), 36)

	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", trackingCodePrefix, ts, suffix))
}
