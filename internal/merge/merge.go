// Package merge overlays presence fields onto profile documents. It is a pure
// transformation: profiles are never dropped or reordered, and a profile with
// no usable presence entry passes through untouched.
package merge

import (
	"encoding/json"

	"github.com/voxbl/friendsync/internal/document"
)

// Field names interpreted by the merge. Everything else in the documents is
// opaque upstream data.
const (
	keyXUID     = "xuid"
	keyLastSeen = "lastSeen"

	keyTimestamp  = "timestamp"
	keyDeviceType = "deviceType"
	keyTitleID    = "titleId"
	keyTitleName  = "titleName"

	keyLastSeenUTC = "lastSeenDateTimeUtc"

	// Injected presence fields go right after this profile field so the
	// serialized document diffs stably between runs.
	insertAnchor = "isXbox360Gamerpic"
)

// BuildPresenceIndex maps xuid to its lastSeen sub-document. Entries without
// a lastSeen timestamp are skipped (they carry nothing to merge); duplicate
// xuids collapse last-write-wins.
func BuildPresenceIndex(presence []*document.Document) map[string]*document.Document {
	index := make(map[string]*document.Document, len(presence))
	for _, p := range presence {
		xuid, ok := p.Key(keyXUID)
		if !ok {
			continue
		}
		lastSeen, ok := p.DocumentValue(keyLastSeen)
		if !ok {
			continue
		}
		if _, ok := lastSeen.Get(keyTimestamp); !ok {
			continue
		}
		index[xuid] = lastSeen
	}
	return index
}

// Apply overlays the indexed presence data onto each profile, in profile
// order. Matched profiles get lastSeenDateTimeUtc overwritten with the
// presence timestamp verbatim, and deviceType/titleId/titleName injected
// after the gamerpic field (JSON null when the presence entry lacks one).
func Apply(profiles []*document.Document, index map[string]*document.Document) []*document.Document {
	for _, profile := range profiles {
		xuid, ok := profile.Key(keyXUID)
		if !ok {
			continue
		}
		lastSeen, ok := index[xuid]
		if !ok {
			continue
		}

		timestamp, _ := lastSeen.Get(keyTimestamp)
		profile.Set(keyLastSeenUTC, timestamp)
		profile.InsertAfter(insertAnchor,
			document.Field{Name: keyDeviceType, Value: rawOrNull(lastSeen, keyDeviceType)},
			document.Field{Name: keyTitleID, Value: rawOrNull(lastSeen, keyTitleID)},
			document.Field{Name: keyTitleName, Value: rawOrNull(lastSeen, keyTitleName)},
		)
	}
	return profiles
}

func rawOrNull(d *document.Document, name string) json.RawMessage {
	if raw, ok := d.Get(name); ok {
		return raw
	}
	return document.Null
}
