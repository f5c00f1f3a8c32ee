// Package keys builds the cache keys for chunk payloads.
package keys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ChunkKey builds a cache key for one chunk of one variable of one dataset.
// Dataset ids can get long, so the readable part is truncated and the full
// identity is carried by an xxhash suffix.
func ChunkKey(datasetID, varName, chunkKey string) string {
	full := datasetID + "/" + varName + "/" + chunkKey
	sum := xxhash.Sum64String(full)

	readable := sanitize(datasetID) + ":" + sanitize(varName) + ":" + sanitize(chunkKey)
	const maxReadableLen = 160
	if len(readable) > maxReadableLen {
		readable = readable[:maxReadableLen]
	}
	return fmt.Sprintf("chunk:%s:h=%016x", readable, sum)
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := r
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = '_'
		case isAlphaNum(r) || r == '.' || r == '_' || r == '-':
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
