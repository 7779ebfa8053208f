package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	id   string
	note string
}

func recID(r rec) string { return r.id }

func TestByKey_KeepsFirstOccurrence(t *testing.T) {
	in := []rec{
		{"A", "table"},
		{"B", "table"},
		{"A", "xml"},
		{"C", "xml"},
		{"B", "xml"},
	}

	got := ByKey(in, recID)

	assert.Equal(t, []rec{{"A", "table"}, {"B", "table"}, {"C", "xml"}}, got)
	assert.Len(t, in, 5, "input must not be modified")
}

func TestByKey_EmptyKeysNeverCollapse(t *testing.T) {
	in := []rec{{"", "one"}, {"", "two"}, {"X", "three"}}
	assert.Equal(t, in, ByKey(in, recID))
}

func TestByKey_Idempotent(t *testing.T) {
	in := []rec{{"1", "a"}, {"2", "b"}, {"1", "c"}, {"", "d"}, {"", "e"}, {"3", "f"}, {"2", "g"}}

	once := ByKey(in, recID)
	twice := ByKey(once, recID)

	assert.Equal(t, once, twice)
}

func TestByKey_Empty(t *testing.T) {
	got := ByKey[rec](nil, recID)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
