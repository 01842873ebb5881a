package claims

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestConditionDedupeKey_Deterministic(t *testing.T) {
	docID := uuid.New()
	vd := day(2015, time.June, 10)

	a := ConditionDedupeKey(docID, 3, &vd, "Knee Pain")
	b := ConditionDedupeKey(docID, 3, &vd, "Knee Pain")
	if a != b {
		t.Fatalf("same inputs must produce the same key: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}

func TestConditionDedupeKey_NormalizesName(t *testing.T) {
	docID := uuid.New()
	vd := day(2015, time.June, 10)

	a := ConditionDedupeKey(docID, 3, &vd, "Knee Pain")
	b := ConditionDedupeKey(docID, 3, &vd, "  knee pain ")
	if a != b {
		t.Fatalf("name casing and padding must not change the key")
	}
}

func TestConditionDedupeKey_DistinguishesInputs(t *testing.T) {
	docID := uuid.New()
	vd := day(2015, time.June, 10)
	other := day(2015, time.June, 11)

	base := ConditionDedupeKey(docID, 3, &vd, "Knee Pain")

	if got := ConditionDedupeKey(uuid.New(), 3, &vd, "Knee Pain"); got == base {
		t.Fatalf("different document must change the key")
	}
	if got := ConditionDedupeKey(docID, 4, &vd, "Knee Pain"); got == base {
		t.Fatalf("different page must change the key")
	}
	if got := ConditionDedupeKey(docID, 3, &other, "Knee Pain"); got == base {
		t.Fatalf("different visit date must change the key")
	}
	if got := ConditionDedupeKey(docID, 3, &vd, "Back Pain"); got == base {
		t.Fatalf("different name must change the key")
	}
	if got := ConditionDedupeKey(docID, 3, nil, "Knee Pain"); got == base {
		t.Fatalf("missing visit date must change the key")
	}
}
