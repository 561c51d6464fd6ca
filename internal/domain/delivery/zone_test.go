package delivery

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	newYork    = Coordinate{Lat: 40.7128, Lon: -74.0060}
	losAngeles = Coordinate{Lat: 34.0522, Lon: -118.2437}
)

func zone(name string, radius float64, fee, minOrder int64) Zone {
	return Zone{
		Name:        name,
		Center:      newYork,
		RadiusMiles: radius,
		Active:      true,
		Fee:         decimal.NewFromInt(fee),
		MinOrder:    decimal.NewFromInt(minOrder),
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 69.0940, Distance(Coordinate{}, Coordinate{Lat: 1}), 0.001)
	assert.InDelta(t, 2445.6, Distance(newYork, losAngeles), 5)
	assert.Equal(t, Distance(newYork, losAngeles), Distance(losAngeles, newYork))
	assert.Zero(t, Distance(newYork, newYork))
}

func TestDistance_Antipodal(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusMiles
	pairs := [][2]Coordinate{
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
		{{Lat: 45, Lon: 10}, {Lat: -45, Lon: -170}},
		{newYork, {Lat: -newYork.Lat, Lon: newYork.Lon + 180}},
		{{Lat: 33.3, Lon: 44.4}, {Lat: -33.3, Lon: -135.6}},
	}
	for _, p := range pairs {
		d := Distance(p[0], p[1])
		require.False(t, math.IsNaN(d), "%v to %v", p[0], p[1])
		assert.InDelta(t, halfCircumference, d, 0.5)
	}

	far := Zone{Name: "globe", Center: pairs[1][0], RadiusMiles: halfCircumference + 1, Active: true}
	assert.True(t, far.Covers(pairs[1][1]))
}

func TestSelect(t *testing.T) {
	// Roughly 2.1 miles north of the shared center.
	near := Coordinate{Lat: newYork.Lat + 0.03, Lon: newYork.Lon}
	subtotal := decimal.NewFromInt(100)

	tests := []struct {
		name     string
		pos      Coordinate
		zones    []Zone
		wantZone string
		wantErr  error
	}{
		{
			name:     "cheapest covering zone",
			pos:      near,
			zones:    []Zone{zone("wide", 10, 9, 0), zone("core", 3, 4, 0), zone("mid", 5, 6, 0)},
			wantZone: "core",
		},
		{
			name:     "tie keeps first in order",
			pos:      near,
			zones:    []Zone{zone("first", 5, 5, 0), zone("second", 3, 5, 0)},
			wantZone: "first",
		},
		{
			name:     "zone too small is skipped",
			pos:      near,
			zones:    []Zone{zone("tiny", 1, 1, 0), zone("wide", 10, 9, 0)},
			wantZone: "wide",
		},
		{
			name: "inactive zone is skipped",
			pos:  near,
			zones: func() []Zone {
				cheap := zone("cheap", 5, 1, 0)
				cheap.Active = false
				return []Zone{cheap, zone("wide", 10, 9, 0)}
			}(),
			wantZone: "wide",
		},
		{
			name:    "no coverage",
			pos:     losAngeles,
			zones:   []Zone{zone("wide", 10, 9, 0)},
			wantErr: ErrNoCoverage,
		},
		{
			name:    "no zones",
			pos:     near,
			wantErr: ErrNoCoverage,
		},
		{
			name:    "minimum order of cheapest zone",
			pos:     near,
			zones:   []Zone{zone("core", 3, 4, 150), zone("wide", 10, 9, 0)},
			wantErr: ErrMinimumOrderNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := Select(tt.pos, tt.zones, subtotal)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantZone, z.Name)
		})
	}
}

func TestSelect_MinimumOrder(t *testing.T) {
	pos := Coordinate{Lat: newYork.Lat + 0.01, Lon: newYork.Lon}
	zones := []Zone{zone("three-mile", 3, 7, 30)}

	z, err := Select(pos, zones, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, z.Fee.Equal(decimal.NewFromInt(7)))

	_, err = Select(pos, zones, decimal.NewFromInt(30))
	require.NoError(t, err)

	_, err = Select(pos, zones, decimal.NewFromInt(20))
	var moe *MinimumOrderError
	require.ErrorAs(t, err, &moe)
	assert.Equal(t, "three-mile", moe.Zone)
	assert.True(t, moe.MinOrder.Equal(decimal.NewFromInt(30)))
	assert.NotErrorIs(t, err, ErrNoCoverage)
	assert.NotErrorIs(t, err, ErrLocationUnavailable)
}

func TestZone_Covers(t *testing.T) {
	z := zone("z", 69.1, 0, 0)
	z.Center = Coordinate{}
	assert.True(t, z.Covers(Coordinate{Lat: 1}))
	assert.False(t, z.Covers(Coordinate{Lat: 1.001}))
}

func TestZone_Validate(t *testing.T) {
	require.NoError(t, zone("ok", 0, 0, 0).Validate())

	bad := []Zone{
		zone("radius", -1, 0, 0),
		zone("fee", 1, -1, 0),
		zone("minimum", 1, 0, -1),
	}
	for _, z := range bad {
		assert.ErrorIs(t, z.Validate(), ErrInvalidZone, z.Name)
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	r := NewResolver()
	zones := []Zone{zone("core", 5, 4, 0)}
	pos := Coordinate{Lat: newYork.Lat + 0.02, Lon: newYork.Lon}

	res, err := r.Resolve(ctx, Fixed(pos), zones, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "core", res.Zone.Name)
	assert.Equal(t, pos, res.Position)
	assert.InDelta(t, Distance(pos, newYork), res.Distance, 1e-9)

	_, err = r.Resolve(ctx, Denied("user denied geolocation"), zones, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrLocationUnavailable)
	assert.NotErrorIs(t, err, ErrNoCoverage)
	assert.Contains(t, err.Error(), "user denied geolocation")

	_, err = r.Resolve(ctx, Fixed(losAngeles), zones, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrNoCoverage)
	assert.NotErrorIs(t, err, ErrLocationUnavailable)
}

func TestResolver_ContextBoundsLocator(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	waiting := LocatorFunc(func(ctx context.Context) (Coordinate, error) {
		<-ctx.Done()
		return Coordinate{}, ctx.Err()
	})
	_, err := NewResolver().Resolve(ctx, waiting, []Zone{zone("core", 5, 4, 0)}, decimal.Zero)
	require.ErrorIs(t, err, ErrLocationUnavailable)
}
