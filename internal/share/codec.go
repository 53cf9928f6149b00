// Package share implements the compact, URL-safe encoding used to pass a
// set of selected (event, date, time) triples through a query string.
//
// Wire layout, pre-compression: 3 code units per selection in the order
// [short uid fingerprint, day offset from the base epoch, minutes since
// midnight]. The packed string is then run through the LZ-string
// compress-to-URI-component primitive, so tokens stay interchangeable with
// ones minted by the original web frontend.
package share

import (
	"errors"
	"fmt"
	"math"
	"net/url"

	lzstring "github.com/daku10/go-lz-string"

	"vfestimetable/internal/model"
)

// ErrInvalidPayload is returned when a share token cannot be decompressed
// into any schedule data.
var ErrInvalidPayload = errors.New("invalid share payload")

// ShareParam is the query parameter carrying the compressed token.
const ShareParam = "schedules"

// Compress encodes the given selections into a URL-safe share token.
//
// Selection order is preserved; duplicate (event, date, time) picks collapse
// to their first occurrence.
func Compress(selections []model.SelectedSchedule) (string, error) {
	triples := make([][3]uint16, 0, len(selections))
	seen := make(map[string]struct{}, len(selections))

	for _, sel := range selections {
		key := sel.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		fingerprint, err := ShortenUID(sel.EventID)
		if err != nil {
			return "", err
		}

		offset, err := DateToOffset(sel.Slot.Date)
		if err != nil {
			return "", err
		}
		if offset < 0 || offset > math.MaxUint16 {
			return "", fmt.Errorf("%w: %s is outside the encodable window", ErrInvalidDate, sel.Slot.Date)
		}

		if !sel.Slot.Time.Valid() {
			return "", fmt.Errorf("%w: bad time %s", ErrInvalidDate, sel.Slot.Time)
		}
		minutes := sel.Slot.Time.Hour*60 + sel.Slot.Time.Minute

		triples = append(triples, [3]uint16{fingerprint, uint16(offset), uint16(minutes)})
	}

	token, err := lzstring.CompressToEncodedURIComponent(PackTriples(triples))
	if err != nil {
		return "", fmt.Errorf("compress share payload: %w", err)
	}
	return token, nil
}

// Decompress decodes a share token back into concrete selections, resolving
// each short id against the given catalog.
func Decompress(token string, events []model.Event) ([]model.SelectedSchedule, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidPayload)
	}

	packed, err := lzstring.DecompressFromEncodedURIComponent(token)
	if err != nil || packed == "" {
		return nil, fmt.Errorf("%w: token does not decompress", ErrInvalidPayload)
	}

	triples := UnpackTriples(packed)
	if len(triples) == 0 {
		return nil, fmt.Errorf("%w: no schedule data", ErrInvalidPayload)
	}

	selections := make([]model.SelectedSchedule, 0, len(triples))
	for _, t := range triples {
		ev, err := ResolveShortUID(t[0], events)
		if err != nil {
			return nil, err
		}

		minutes := int(t[2])
		selections = append(selections, model.SelectedSchedule{
			EventID: ev.UID,
			Slot: model.ScheduleSlot{
				Date: OffsetToDate(int(t[1])),
				Time: model.ClockTime{Hour: minutes / 60, Minute: minutes % 60},
			},
		})
	}
	return selections, nil
}

// ShareURL sets the schedules query parameter on baseURL to the given token
// and returns the full URL. No other part of the URL is touched.
func ShareURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse share base url: %w", err)
	}
	q := u.Query()
	q.Set(ShareParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// GenerateShareURL compresses the selections and embeds the token into
// baseURL's schedules query parameter.
func GenerateShareURL(baseURL string, selections []model.SelectedSchedule) (string, error) {
	token, err := Compress(selections)
	if err != nil {
		return "", err
	}
	return ShareURL(baseURL, token)
}
