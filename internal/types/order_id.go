package types

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedOrderID is returned when a client order id does not match the
// "buy://<pair>/<hex>" / "sell://<pair>/<hex>" scheme.
var ErrMalformedOrderID = errors.New("types: malformed client order id")

// NewClientOrderID mints a client order id of the form
// "buy://<pair>/<32-hex>" or "sell://<pair>/<32-hex>", encoding the side in
// the scheme prefix so it is decodable without a side lookup.
func NewClientOrderID(side Side, pair TradingPair) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return sidePrefix(side) + "://" + pair.Key() + "/" + suffix
}

// DecodeClientOrderID recovers the side and pair key encoded in a client
// order id minted by NewClientOrderID.
func DecodeClientOrderID(id string) (side Side, pairKey string, err error) {
	schemeIdx := strings.Index(id, "://")
	if schemeIdx < 0 {
		return 0, "", ErrMalformedOrderID
	}
	scheme, rest := id[:schemeIdx], id[schemeIdx+3:]

	switch scheme {
	case "buy":
		side = SideBuy
	case "sell":
		side = SideSell
	default:
		return 0, "", ErrMalformedOrderID
	}

	slashIdx := strings.LastIndex(rest, "/")
	if slashIdx < 0 {
		return 0, "", ErrMalformedOrderID
	}
	pairKey = rest[:slashIdx]
	if pairKey == "" {
		return 0, "", ErrMalformedOrderID
	}
	return side, pairKey, nil
}
