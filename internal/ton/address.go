package ton

import (
	"bytes"
	"strings"

	"github.com/xssnick/tonutils-go/address"

	"github.com/ton-course/backend/internal/apperrors"
)

// ParseAddress accepts both raw ("0:<hex>") and user-friendly ("EQ...",
// "UQ...", "0Q...") encodings of a TON address.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAddress, "empty address")
	}

	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(s, ":") {
		addr, err = address.ParseRawAddr(s)
	} else {
		addr, err = address.ParseAddr(s)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAddress, "parse %q: %v", s, err)
	}
	return addr, nil
}

// SameAddress reports whether two strings encode the same underlying address,
// regardless of raw vs. friendly form or bounceable/testnet flags.
func SameAddress(a, b string) bool {
	pa, err := ParseAddress(a)
	if err != nil {
		return false
	}
	pb, err := ParseAddress(b)
	if err != nil {
		return false
	}
	return equalAddr(pa, pb)
}

func equalAddr(a, b *address.Address) bool {
	return a.Workchain() == b.Workchain() && bytes.Equal(a.Data(), b.Data())
}
