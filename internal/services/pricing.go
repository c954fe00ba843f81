package services

import (
	"math"
	"time"

	"github.com/jumlahub/jumla-backend/internal/types"
)

const (
	pricingBase          = 2000.0
	pricingPerKM         = 500.0
	pricingPerKG         = 200.0
	defaultDistanceKM    = 50.0
	urgentMultiplier     = 1.5
	urgencyLineItemShare = 0.5
	insuranceRate        = 0.02
	coldChainMultiplier  = 1.3

	urgentDeliveryWindow   = 24 * time.Hour
	standardDeliveryWindow = 72 * time.Hour
)

type PricingOptions struct {
	Urgent       bool
	Insurance    bool
	ColdChain    bool
	InsuredValue float64
}

// CalculatePrice is the pure tariff function, shared by live shipments and
// standalone quoting. Note: an urgent shipment is charged the 1.5x
// multiplier AND a separate urgency line item of half the multiplied price.
// This double application is the billed behavior; keep it.
func CalculatePrice(distanceKM, weightKG float64, opts PricingOptions) types.PriceBreakdown {
	breakdown := types.PriceBreakdown{
		BasePrice:     pricingBase,
		DistanceKM:    distanceKM,
		DistancePrice: distanceKM * pricingPerKM,
		WeightPrice:   weightKG * pricingPerKG,
		Urgent:        opts.Urgent,
		Insurance:     opts.Insurance,
		ColdChain:     opts.ColdChain,
	}

	price := breakdown.BasePrice + breakdown.DistancePrice + breakdown.WeightPrice
	if opts.Urgent {
		price *= urgentMultiplier
		breakdown.UrgencyPrice = price * urgencyLineItemShare
	}
	if opts.Insurance {
		breakdown.InsurancePrice = opts.InsuredValue * insuranceRate
	}
	if opts.ColdChain {
		price *= coldChainMultiplier
	}

	breakdown.Price = price
	breakdown.Total = price + breakdown.UrgencyPrice + breakdown.InsurancePrice
	return breakdown
}

// EstimateDelivery returns now+24h for urgent shipments, now+72h otherwise.
func EstimateDelivery(now time.Time, urgent bool) time.Time {
	if urgent {
		return now.Add(urgentDeliveryWindow)
	}
	return now.Add(standardDeliveryWindow)
}

const earthRadiusKM = 6371.0

// HaversineKM is the great-circle distance between two coordinates.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// routeDistanceKM falls back to the default distance when either stop lacks
// coordinates.
func routeDistanceKM(pickup, dropoff types.ShipmentStop) float64 {
	if !pickup.HasCoordinates() || !dropoff.HasCoordinates() {
		return defaultDistanceKM
	}
	return HaversineKM(*pickup.Lat, *pickup.Lng, *dropoff.Lat, *dropoff.Lng)
}

type QuoteInput struct {
	Pickup       types.ShipmentStop
	Dropoff      types.ShipmentStop
	WeightKG     float64
	Urgent       bool
	Insurance    bool
	ColdChain    bool
	InsuredValue float64
}

type QuoteResult struct {
	Breakdown         types.PriceBreakdown `json:"breakdown"`
	DistanceKM        float64              `json:"distance_km"`
	EstimatedDelivery time.Time            `json:"estimated_delivery"`
}

// Quote prices a hypothetical shipment without creating one.
func Quote(in QuoteInput, now time.Time) QuoteResult {
	distance := routeDistanceKM(in.Pickup, in.Dropoff)
	breakdown := CalculatePrice(distance, in.WeightKG, PricingOptions{
		Urgent:       in.Urgent,
		Insurance:    in.Insurance,
		ColdChain:    in.ColdChain,
		InsuredValue: in.InsuredValue,
	})
	return QuoteResult{
		Breakdown:         breakdown,
		DistanceKM:        distance,
		EstimatedDelivery: EstimateDelivery(now, in.Urgent),
	}
}
