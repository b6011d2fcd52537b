// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Venue names an on-chain exchange that can quote a swap.
type Venue string

const (
	VenueUniswap   Venue = "uniswap"
	VenueSushiswap Venue = "sushiswap"
)

// Venues lists the supported venues in a stable order.
func Venues() []Venue {
	return []Venue{VenueUniswap, VenueSushiswap}
}

// ParseVenue accepts any casing and surrounding whitespace.
func ParseVenue(s string) (Venue, error) {
	v := Venue(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VenueUniswap, VenueSushiswap:
		return v, nil
	}
	return "", fmt.Errorf("unsupported venue %q", s)
}

// DexID is the identifier the flash-loan receiver uses to pick the buy venue.
func (v Venue) DexID() (uint8, bool) {
	switch v {
	case VenueUniswap:
		return 0, true
	case VenueSushiswap:
		return 1, true
	}
	return 0, false
}

func (v Venue) String() string {
	return string(v)
}

// Leg is one swap of a route: TokenIn sold for TokenOut on Venue.
type Leg struct {
	Venue    Venue
	TokenIn  common.Address
	TokenOut common.Address
}

func (l Leg) String() string {
	return fmt.Sprintf("%s:%s->%s", l.Venue, short(l.TokenIn), short(l.TokenOut))
}

func short(a common.Address) string {
	return a.Hex()[:8]
}
