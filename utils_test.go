package transparence

import (
	"encoding/json"
	"testing"
)

func TestHexRoundTrip(t *testing.T) {
	in := `{"title":"Évidence ✓"}`
	h := StringToHex(in)
	if len(h) != 2*len(in) {
		t.Fatalf("unexpected hex length %s", h)
	}

	out, err := HexToString(h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestStringToHexUpperCase(t *testing.T) {
	if got := StringToHex("TRANSPARENCE_V1"); got != "5452414E53504152454E43455F5631" {
		t.Fatalf("unexpected memo type hex %s", got)
	}
}

func TestHexToStringTolerance(t *testing.T) {
	out, err := HexToString("54 52\n414e")
	if err != nil || out != "TRAN" {
		t.Fatalf("expected TRAN, got %q %v", out, err)
	}

	for _, bad := range []string{"545", "ZZ", "FF"} {
		if _, err := HexToString(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRippleEpochToUnixMilli(t *testing.T) {
	if got := RippleEpochToUnixMilli(0); got != 946684800000 {
		t.Fatalf("unexpected %d", got)
	}
}

func TestExplorerURL(t *testing.T) {
	if got := ExplorerURL("https://testnet.xrpl.org/transactions", "ABC"); got != "https://testnet.xrpl.org/transactions/ABC" {
		t.Fatalf("unexpected %s", got)
	}
	if got := ExplorerURL("", "ABC"); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
}

func TestIsClassicAddress(t *testing.T) {
	if !IsClassicAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh") {
		t.Fatalf("expected valid address")
	}
	for _, s := range []string{"", "xHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "rHb9CJAWyB4rj91VRWn96DkukG4bwdty0h"} {
		if IsClassicAddress(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestAccountTxEntryNormalize(t *testing.T) {
	v1 := `{"tx":{"TransactionType":"Payment","Account":"rA","hash":"H1"},"validated":true,"meta":{"TransactionResult":"tesSUCCESS"}}`
	v2 := `{"tx_json":{"TransactionType":"Payment","Account":"rA"},"hash":"H2","validated":true}`
	failed := `{"tx":{"TransactionType":"Payment","hash":"H3"},"validated":true,"meta":{"TransactionResult":"tecNO_DST"}}`
	unvalidated := `{"tx":{"TransactionType":"Payment","hash":"H4"},"validated":false}`

	cases := []struct {
		raw  string
		hash string
		ok   bool
	}{
		{v1, "H1", true},
		{v2, "H2", true},
		{failed, "H3", false},
		{unvalidated, "H4", false},
	}
	for _, c := range cases {
		var e AccountTxEntry
		if err := json.Unmarshal([]byte(c.raw), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		tx, ok := e.Normalize()
		if ok != c.ok || tx.Hash != c.hash {
			t.Errorf("Normalize(%s) = %q %v", c.raw, tx.Hash, ok)
		}
	}
}
