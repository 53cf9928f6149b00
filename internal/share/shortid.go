package share

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	appLog "vfestimetable/internal/log"
	"vfestimetable/internal/model"
)

// ErrEventNotFound is returned when a short id fingerprint matches no
// catalog entry, e.g. because a shared event no longer exists.
var ErrEventNotFound = errors.New("event not found")

// shortIDLen is the number of leading UID characters kept in the share
// payload. 3 base-36 digits top out at 46655, safely within 16 bits.
const shortIDLen = 3

// ShortenUID derives the numeric fingerprint of a full event UID from its
// first 3 characters, read as a base-36 number (case-insensitive).
func ShortenUID(uid string) (uint16, error) {
	if len(uid) < shortIDLen {
		return 0, fmt.Errorf("event id too short: %q", uid)
	}
	n, err := strconv.ParseUint(strings.ToLower(uid[:shortIDLen]), 36, 16)
	if err != nil {
		return 0, fmt.Errorf("event id %q is not base-36 encodable: %w", uid, err)
	}
	return uint16(n), nil
}

// ResolveShortUID maps a fingerprint back to a catalog event by re-encoding
// it as a zero-padded 3-character base-36 prefix and scanning the catalog.
//
// When several events share a prefix the first one in catalog order wins
// and a warning is logged; the payload carries no further disambiguation.
func ResolveShortUID(fingerprint uint16, events []model.Event) (model.Event, error) {
	prefix := formatShortUID(fingerprint)

	var (
		found model.Event
		count int
	)
	for _, ev := range events {
		if strings.HasPrefix(ev.UID, prefix) {
			if count == 0 {
				found = ev
			}
			count++
		}
	}

	if count == 0 {
		return model.Event{}, fmt.Errorf("%w: short id %q", ErrEventNotFound, prefix)
	}
	if count > 1 {
		appLog.Warn("short event id collision", "prefix", prefix, "matches", count, "picked", found.UID)
	}
	return found, nil
}

func formatShortUID(fingerprint uint16) string {
	s := strconv.FormatUint(uint64(fingerprint), 36)
	for len(s) < shortIDLen {
		s = "0" + s
	}
	return s
}
