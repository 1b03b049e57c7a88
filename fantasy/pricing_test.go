package fantasy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func id(v int64) *int64 { return &v }

func TestDemandAdjustment(t *testing.T) {
	tests := []struct {
		prev, cur float64
		want      float64
	}{
		{10, 25, 0.3},
		{25, 10, -0.3},
		{10, 14.9, 0},
		{10, 15, 0.1},
		{40, 31, -0.1},
		{0, 100, 2.0},
		{50, 50, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DemandAdjustment(tt.prev, tt.cur), 1e-9, "prev=%v cur=%v", tt.prev, tt.cur)
	}
}

func TestPreRaceBoost(t *testing.T) {
	assert.Zero(t, PreRaceBoost(10, 6))
	assert.Zero(t, PreRaceBoost(10, 0))
	assert.InDelta(t, 0.1, PreRaceBoost(10, 5), 1e-9)
	assert.InDelta(t, 0.3, PreRaceBoost(10, 3), 1e-9)
	assert.InDelta(t, 0.5, PreRaceBoost(10, 1), 1e-9)
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 10.3, RoundPrice(10.25))
	assert.Equal(t, 10.2, RoundPrice(10.24))
	assert.Equal(t, 10.4, RoundPrice(10.35))
	assert.Equal(t, 1.0, RoundPrice(0.95))
}

func TestCalculateFinalPrice(t *testing.T) {
	tests := []struct {
		name string
		in   PriceInput
		want float64
	}{
		{
			name: "three thresholds crossed",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, PreviousOwnershipPct: 10, CurrentOwnershipPct: 25},
			want: 10.3,
		},
		{
			name: "large demand clamped to daily limit",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, PreviousOwnershipPct: 0, CurrentOwnershipPct: 100},
			want: 10.5,
		},
		{
			name: "large drop clamped to daily limit",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, PreviousOwnershipPct: 100, CurrentOwnershipPct: 0},
			want: 9.5,
		},
		{
			name: "ceiling",
			in:   PriceInput{CurrentPrice: 24.9, BasePrice: 20, PreviousOwnershipPct: 0, CurrentOwnershipPct: 60},
			want: 25.0,
		},
		{
			name: "floor",
			in:   PriceInput{CurrentPrice: 1.0, BasePrice: 1.0, PreviousOwnershipPct: 80, CurrentOwnershipPct: 0},
			want: 1.0,
		},
		{
			name: "race eve boost on first sight",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, DaysUntilRace: pos(1), RaceID: id(7)},
			want: 10.5,
		},
		{
			name: "first day of the window",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, DaysUntilRace: pos(5), RaceID: id(7)},
			want: 10.1,
		},
		{
			name: "already boosted adds one day",
			in: PriceInput{CurrentPrice: 10.2, BasePrice: 10, DaysUntilRace: pos(3), RaceID: id(7),
				BoostActive: true, BoostRaceID: id(7)},
			want: 10.3,
		},
		{
			name: "outside the window",
			in:   PriceInput{CurrentPrice: 10, BasePrice: 10, DaysUntilRace: pos(9), RaceID: id(7)},
			want: 10,
		},
		{
			name: "reset after the race",
			in: PriceInput{CurrentPrice: 10.5, BasePrice: 10, BoostActive: true, BoostRaceID: id(7),
				RaceFinished: true},
			want: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFinalPrice(tt.in)
			assert.InDelta(t, tt.want, got.Price, 1e-9)
		})
	}
}

func TestCalculateFinalPrice_BoostState(t *testing.T) {
	out := CalculateFinalPrice(PriceInput{CurrentPrice: 10, BasePrice: 10, DaysUntilRace: pos(2), RaceID: id(3)})
	assert.True(t, out.BoostActive)
	if assert.NotNil(t, out.BoostRaceID) {
		assert.Equal(t, int64(3), *out.BoostRaceID)
	}

	out = CalculateFinalPrice(PriceInput{CurrentPrice: 10.5, BasePrice: 10, BoostActive: true, BoostRaceID: id(3), RaceFinished: true})
	assert.False(t, out.BoostActive)
	assert.Nil(t, out.BoostRaceID)
	assert.True(t, out.BoostReset)
}

func TestCalculateFinalPrice_ResetWalksBackOverDays(t *testing.T) {
	in := PriceInput{CurrentPrice: 11.0, BasePrice: 10, BoostActive: true, BoostRaceID: id(7), RaceFinished: true}

	want := []struct {
		price  float64
		active bool
	}{
		{10.5, true},
		{10.0, false},
	}
	for day, w := range want {
		out := CalculateFinalPrice(in)
		assert.InDelta(t, w.price, out.Price, 1e-9, "day %d", day+1)
		assert.Equal(t, w.active, out.BoostActive, "day %d", day+1)
		assert.True(t, out.BoostReset, "day %d", day+1)
		if w.active {
			if assert.NotNil(t, out.BoostRaceID) {
				assert.Equal(t, int64(7), *out.BoostRaceID)
			}
		} else {
			assert.Nil(t, out.BoostRaceID)
		}

		in.CurrentPrice = out.Price
		in.BoostActive = out.BoostActive
		in.BoostRaceID = out.BoostRaceID
	}

	// Once back at base the race no longer affects the price.
	out := CalculateFinalPrice(in)
	assert.InDelta(t, 10.0, out.Price, 1e-9)
	assert.False(t, out.BoostReset)
}

func TestCalculateFinalPrice_LongResetSequence(t *testing.T) {
	in := PriceInput{CurrentPrice: 20, BasePrice: 15, BoostActive: true, BoostRaceID: id(2), RaceFinished: true}
	prices := []float64{}
	for i := 0; i < 10 && in.BoostActive; i++ {
		out := CalculateFinalPrice(in)
		assert.Less(t, out.Price, in.CurrentPrice)
		prices = append(prices, out.Price)
		in.CurrentPrice, in.BoostActive, in.BoostRaceID = out.Price, out.BoostActive, out.BoostRaceID
	}
	assert.False(t, in.BoostActive)
	assert.Equal(t, []float64{19, 18.1, 17.2, 16.3, 15.5, 15}, prices)
}

func TestCalculateFinalPrice_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		current := RoundPrice(MinPrice + rng.Float64()*(MaxPrice-MinPrice))
		in := PriceInput{
			CurrentPrice:         current,
			BasePrice:            RoundPrice(MinPrice + rng.Float64()*(MaxPrice-MinPrice)),
			PreviousOwnershipPct: rng.Float64() * 100,
			CurrentOwnershipPct:  rng.Float64() * 100,
		}
		if rng.Intn(2) == 0 {
			in.DaysUntilRace = pos(rng.Intn(8))
			in.RaceID = id(1)
		}
		got := CalculateFinalPrice(in).Price
		assert.GreaterOrEqual(t, got, MinPrice)
		assert.LessOrEqual(t, got, MaxPrice)
		assert.LessOrEqual(t, math.Abs(got-current), current*MaxDailyChange+0.05+1e-9,
			"current=%v in=%+v", current, in)
	}
}

func TestOwnershipPct(t *testing.T) {
	assert.Equal(t, 25.0, OwnershipPct(1, 4))
	assert.Zero(t, OwnershipPct(3, 0))
	assert.Equal(t, 100.0, OwnershipPct(5, 4))
}
