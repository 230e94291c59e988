package ai

import (
	"fmt"
	"hash/fnv"
)

// fingerprint hashes the optional fields that distinguish two requests.
// A nil field hashes differently from an empty one.
func fingerprint(fields ...*string) string {
	h := fnv.New64a()
	for _, f := range fields {
		if f == nil {
			_, _ = h.Write([]byte{0})
		} else {
			_, _ = h.Write([]byte{1})
			_, _ = h.Write([]byte(*f))
		}
		_, _ = h.Write([]byte{0x1f})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func storyCacheKey(vendor string, req StoryRequest) string {
	genre := req.Genre
	return fmt.Sprintf("%s:story:%s:%s:%s", vendor, req.StoryID, req.SessionID,
		fingerprint(&genre, req.Theme, req.Tone))
}

func choicesCacheKey(vendor string, req ChoicesRequest) string {
	situation := req.CurrentSituation
	return fmt.Sprintf("%s:choices:%s:%s:%s", vendor, req.ChapterID, req.SessionID,
		fingerprint(&situation))
}
