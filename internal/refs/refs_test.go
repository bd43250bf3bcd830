package refs

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var refPattern = regexp.MustCompile(`^(RES|TRANS|DEVIS|ACCOM)-(\d{13,})-([0-9A-Z]{8})$`)

func TestNew_Format(t *testing.T) {
	for _, prefix := range []string{PrefixReservation, PrefixTransport, PrefixDevis, PrefixAccompagnement} {
		ref := New(prefix)

		m := refPattern.FindStringSubmatch(ref)
		if m == nil {
			t.Fatalf("New(%q) = %q; does not match PREFIX-epochms-SUFFIX", prefix, ref)
		}
		if m[1] != prefix {
			t.Fatalf("prefix = %q, want %q", m[1], prefix)
		}

		ms, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			t.Fatalf("timestamp segment %q: %v", m[2], err)
		}
		now := time.Now().UnixMilli()
		if ms < now-10_000 || ms > now+1_000 {
			t.Fatalf("timestamp %d too far from now %d", ms, now)
		}
	}
}

func TestNew_SuffixAlphabet(t *testing.T) {
	ref := New(PrefixReservation)
	suffix := ref[strings.LastIndex(ref, "-")+1:]
	if len(suffix) != 8 {
		t.Fatalf("suffix %q length = %d, want 8", suffix, len(suffix))
	}
	for _, r := range suffix {
		if !strings.ContainsRune(base36Alphabet, r) {
			t.Fatalf("suffix %q contains %q outside base36 alphabet", suffix, r)
		}
	}
}

func TestNew_Unique(t *testing.T) {
	const n = 10_000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		ref := New(PrefixDevis)
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference after %d draws: %s", i, ref)
		}
		seen[ref] = struct{}{}
	}
}
