package transparence

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// rippleEpochOffset is the number of seconds between the Unix epoch and
// 2000-01-01T00:00:00Z, the origin of ledger close times.
const rippleEpochOffset = 946684800

// StringToHex encodes s as upper-case hex of its UTF-8 bytes, the memo wire
// encoding.
func StringToHex(s string) string {
	return strings.ToUpper(strings.TrimPrefix(hexutil.Encode([]byte(s)), "0x"))
}

// HexToString reverses StringToHex. Whitespace is ignored; odd length,
// non-hex characters and invalid UTF-8 are errors.
func HexToString(h string) (string, error) {
	h = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, h)

	b, err := hexutil.Decode("0x" + h)
	if err != nil {
		return "", fmt.Errorf("invalid memo hex: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("memo is not valid utf-8")
	}
	return string(b), nil
}

// RippleEpochToUnixMilli converts a ledger close time to epoch milliseconds.
func RippleEpochToUnixMilli(date int64) int64 {
	return (date + rippleEpochOffset) * 1000
}

// ExplorerURL composes the explorer link for a transaction hash.
func ExplorerURL(base, hash string) string {
	if base == "" || hash == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(hash)
}

func hasChar(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}

// IsClassicAddress reports whether s looks like a classic ledger account
// address. The checksum is not verified.
func IsClassicAddress(s string) bool {
	if len(s) < 25 || len(s) > 35 || s[0] != 'r' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !hasChar(rippleAlphabet, s[i]) {
			return false
		}
	}
	return true
}

const rippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"
