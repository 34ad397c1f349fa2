package ton

import (
	"fmt"
	"math/big"
	"strings"
)

// Amounts are compared in nanoTON (the base unit) everywhere. Decimal TON
// strings exist only at the API boundary, so float drift can never decide
// whether a payment matched. 1 TON = 1_000_000_000 nanoTON.

const nanoDigits = 9

// ParseTON converts a decimal TON string (e.g. "5.5") to nanoTON.
func ParseTON(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty TON amount")
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, fmt.Errorf("negative TON amount: %s", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid TON amount: %s", s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > nanoDigits {
		return nil, fmt.Errorf("TON amount has more than %d decimal places: %s", nanoDigits, s)
	}
	for len(frac) < nanoDigits {
		frac += "0"
	}

	nano, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid TON amount: %s", s)
	}
	return nano, nil
}

// FormatNano renders a nanoTON value as a decimal TON string with trailing
// zeros trimmed ("7000000000" -> "7", "10500000000" -> "10.5").
func FormatNano(nano *big.Int) string {
	if nano == nil {
		return "0"
	}

	q, r := new(big.Int).QuoRem(nano, big.NewInt(1_000_000_000), new(big.Int))

	if r.Sign() == 0 {
		return q.String()
	}

	frac := fmt.Sprintf("%09d", r)
	frac = strings.TrimRight(frac, "0")
	return q.String() + "." + frac
}
