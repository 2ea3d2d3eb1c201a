package ledger

import (
	"strings"
	"testing"
)

func TestCheckHexN_Lengths(t *testing.T) {
	for _, n := range []int{63, 65, 127, 129} {
		s := strings.Repeat("a", n)
		want := HashHexLen
		if n > 100 {
			want = SigHexLen
		}
		if err := checkHexN("f", s, want); err == nil {
			t.Errorf("expected %d hex chars to fail against width %d", n, want)
		}
	}
	if err := checkHexN("f", strings.Repeat("ab", 32), HashHexLen); err != nil {
		t.Errorf("expected 64 hex chars to pass, got %v", err)
	}
	if err := checkHexN("f", strings.Repeat("0f", 64), SigHexLen); err != nil {
		t.Errorf("expected 128 hex chars to pass, got %v", err)
	}
}

func TestCheckHexN_UppercaseAccepted(t *testing.T) {
	if err := checkHexN("f", strings.Repeat("AB", 32), HashHexLen); err != nil {
		t.Errorf("uppercase hex should be accepted, got %v", err)
	}
	if err := checkHexN("f", strings.Repeat("zz", 32), HashHexLen); err == nil {
		t.Error("non-hex characters should be rejected")
	}
}

func TestCheckTimestamp_OffsetRequired(t *testing.T) {
	if err := checkTimestamp("ts", "2025-01-01T00:00:00"); err == nil {
		t.Error("timestamp without offset should be rejected")
	}
	if err := checkTimestamp("ts", "2025-01-01T00:00:00Z"); err != nil {
		t.Errorf("Z-suffixed timestamp should pass, got %v", err)
	}
	if err := checkTimestamp("ts", "2025-01-01T00:00:00+02:00"); err != nil {
		t.Errorf("timestamp with numeric offset should pass, got %v", err)
	}
	if err := checkTimestamp("ts", ""); err == nil {
		t.Error("empty timestamp should be rejected")
	}
}

func TestCheckURL(t *testing.T) {
	for _, ok := range []string{"ws://node1.hospital.example:9090/gossip", "wss://node2.example", "https://api.example/v1"} {
		if err := checkURL("endpoint", ok); err != nil {
			t.Errorf("%q should be a valid endpoint, got %v", ok, err)
		}
	}
	for _, bad := range []string{"", "not a url", "/relative/path", "hostonly"} {
		if err := checkURL("endpoint", bad); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestRejectionFieldPath(t *testing.T) {
	err := checkHexN("txs[3].user.pubKeyHex", "abc", HashHexLen)
	r, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected a Rejection, got %v", err)
	}
	if r.Field != "txs[3].user.pubKeyHex" {
		t.Errorf("unexpected field path %q", r.Field)
	}
	if !strings.Contains(r.Constraint, "64 hex chars") {
		t.Errorf("constraint should name the expected width, got %q", r.Constraint)
	}
}
