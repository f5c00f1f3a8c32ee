package keys

import (
	"strings"
	"testing"
)

func TestChunkKeyStable(t *testing.T) {
	a := ChunkKey("esacci.SST.day.L4.SSTdepth.multi-sensor.multi-platform.OSTIA.1-1.r1", "analysed_sst", "0.1.2")
	b := ChunkKey("esacci.SST.day.L4.SSTdepth.multi-sensor.multi-platform.OSTIA.1-1.r1", "analysed_sst", "0.1.2")
	if a != b {
		t.Fatalf("key not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "chunk:") || !strings.Contains(a, ":h=") {
		t.Fatalf("unexpected key shape: %q", a)
	}
}

func TestChunkKeyDistinguishesChunks(t *testing.T) {
	a := ChunkKey("ds", "v", "0.0.0")
	b := ChunkKey("ds", "v", "0.0.1")
	if a == b {
		t.Fatal("different chunk indexes produced the same key")
	}
}

func TestChunkKeyTruncatesLongIDsButKeepsIdentity(t *testing.T) {
	longID := strings.Repeat("verylongdatasetid.", 30)
	a := ChunkKey(longID+"x", "v", "0")
	b := ChunkKey(longID+"y", "v", "0")
	if len(a) > 200 {
		t.Fatalf("key too long: %d", len(a))
	}
	if a == b {
		t.Fatal("truncated keys collided despite different dataset ids")
	}
}

func TestChunkKeySanitizesWhitespace(t *testing.T) {
	k := ChunkKey("data set\tid", "my var", "0")
	if strings.ContainsAny(k, " \t\n") {
		t.Fatalf("key contains whitespace: %q", k)
	}
}
