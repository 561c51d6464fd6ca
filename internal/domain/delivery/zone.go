// Package delivery resolves which geofenced delivery zone serves a shopper.
package delivery

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// EarthRadiusMiles is the mean Earth radius used by Distance.
const EarthRadiusMiles = 3958.8

var (
	// ErrNoCoverage is returned when no active zone contains the position.
	ErrNoCoverage = errors.New("no delivery zone covers this location")
	// ErrLocationUnavailable is returned when geolocation fails or is denied.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrMinimumOrderNotMet is matched by *MinimumOrderError.
	ErrMinimumOrderNotMet = errors.New("minimum order not met for this zone")
	// ErrInvalidZone is returned by Zone.Validate.
	ErrInvalidZone = errors.New("invalid delivery zone")
)

// Coordinate is a position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zone is a circular delivery area with its own fee and order minimum.
type Zone struct {
	Name        string          `json:"name"`
	Center      Coordinate      `json:"center"`
	RadiusMiles float64         `json:"radiusMiles"`
	Active      bool            `json:"active"`
	Fee         decimal.Decimal `json:"fee"`
	MinOrder    decimal.Decimal `json:"minOrder"`
}

// Validate checks that radius, fee and minimum are not negative.
func (z Zone) Validate() error {
	switch {
	case z.RadiusMiles < 0:
		return errors.Wrapf(ErrInvalidZone, "%s: radius must not be negative", z.Name)
	case z.Fee.IsNegative():
		return errors.Wrapf(ErrInvalidZone, "%s: fee must not be negative", z.Name)
	case z.MinOrder.IsNegative():
		return errors.Wrapf(ErrInvalidZone, "%s: minimum order must not be negative", z.Name)
	}
	return nil
}

// Covers reports whether pos lies within the zone radius.
func (z Zone) Covers(pos Coordinate) bool {
	return Distance(pos, z.Center) <= z.RadiusMiles
}

// MinimumOrderError reports that the cheapest covering zone requires a larger
// subtotal than the cart holds.
type MinimumOrderError struct {
	Zone     string
	MinOrder decimal.Decimal
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("minimum order of $%s not met for zone %s", e.MinOrder.StringFixed(2), e.Zone)
}

// Is makes errors.Is(err, ErrMinimumOrderNotMet) match.
func (e *MinimumOrderError) Is(target error) bool {
	return target == ErrMinimumOrderNotMet
}

// Distance returns the great-circle distance between a and b in miles.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push near-antipodal points past 1.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Select picks the cheapest active zone covering pos. Equal fees keep the
// zone that appears first in zones. The selected zone's minimum order is
// then enforced against subtotal.
func Select(pos Coordinate, zones []Zone, subtotal decimal.Decimal) (Zone, error) {
	var (
		best  Zone
		found bool
	)
	for _, z := range zones {
		if !z.Active || !z.Covers(pos) {
			continue
		}
		if !found || z.Fee.LessThan(best.Fee) {
			best = z
			found = true
		}
	}
	if !found {
		return Zone{}, ErrNoCoverage
	}
	if subtotal.LessThan(best.MinOrder) {
		return Zone{}, &MinimumOrderError{Zone: best.Name, MinOrder: best.MinOrder}
	}
	return best, nil
}
