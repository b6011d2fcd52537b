// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	pricingDomain "github.com/fd1az/sizing-bot/business/pricing/domain"
)

// Route is a WETH round trip: buy the token on Buy, sell it back on Sell.
type Route struct {
	Buy  pricingDomain.Venue
	Sell pricingDomain.Venue
}

// DefaultRoutes returns both directions between Uniswap and SushiSwap.
func DefaultRoutes() []Route {
	return []Route{
		{Buy: pricingDomain.VenueUniswap, Sell: pricingDomain.VenueSushiswap},
		{Buy: pricingDomain.VenueSushiswap, Sell: pricingDomain.VenueUniswap},
	}
}

// Valid reports whether the route crosses two different venues.
func (r Route) Valid() bool {
	return r.Buy != "" && r.Sell != "" && r.Buy != r.Sell
}

func (r Route) String() string {
	return string(r.Buy) + "->" + string(r.Sell)
}

// ShortString returns e.g. "UNI>SUSHI" for narrow table columns.
func (r Route) ShortString() string {
	return venueTag(r.Buy) + ">" + venueTag(r.Sell)
}

func venueTag(v pricingDomain.Venue) string {
	switch v {
	case pricingDomain.VenueUniswap:
		return "UNI"
	case pricingDomain.VenueSushiswap:
		return "SUSHI"
	}
	return string(v)
}
