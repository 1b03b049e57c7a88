package fantasy

import "math"

const (
	MinPrice = 1.0
	MaxPrice = 25.0

	// DemandThreshold is the ownership delta, in percentage points, worth one
	// price step.
	DemandThreshold = 5.0
	DemandStep      = 0.1

	BoostDays       = 5
	BoostPerDayRate = 0.01
	MaxDailyChange  = 0.05

	priceEpsilon = 1e-9
)

// PriceInput is the state the daily price update works from.
type PriceInput struct {
	CurrentPrice float64
	BasePrice    float64

	PreviousOwnershipPct float64
	CurrentOwnershipPct  float64

	// DaysUntilRace is the number of days until the next race the cyclist is
	// entered in, or nil when there is none.
	DaysUntilRace *int
	RaceID        *int64

	BoostActive  bool
	BoostRaceID  *int64
	RaceFinished bool
}

// PriceOutcome is the new price plus the boost state to persist with it.
type PriceOutcome struct {
	Price       float64
	Demand      float64
	Boost       float64
	BoostActive bool
	BoostRaceID *int64
	BoostReset  bool
}

// DemandAdjustment converts an ownership move into a price move: each full
// DemandThreshold crossed is worth DemandStep, truncated toward zero.
func DemandAdjustment(previousPct, currentPct float64) float64 {
	thresholds := math.Trunc((currentPct - previousPct + signedEpsilon(currentPct-previousPct)) / DemandThreshold)
	return thresholds * DemandStep
}

func signedEpsilon(x float64) float64 {
	if x < 0 {
		return -priceEpsilon
	}
	return priceEpsilon
}

// PreRaceBoost is the total boost accrued by a rider entered in a race
// starting in daysUntil days. It grows by 1% of the base price per day over
// the last BoostDays days and peaks at 5% on race eve.
func PreRaceBoost(basePrice float64, daysUntil int) float64 {
	if daysUntil < 1 || daysUntil > BoostDays {
		return 0
	}
	return basePrice * BoostPerDayRate * float64(BoostDays+1-daysUntil)
}

// ClampDailyChange keeps price within MaxDailyChange of previous.
func ClampDailyChange(price, previous float64) float64 {
	limit := previous * MaxDailyChange
	return clamp(price, previous-limit, previous+limit)
}

// ClampPrice keeps price within [MinPrice, MaxPrice].
func ClampPrice(price float64) float64 {
	return clamp(price, MinPrice, MaxPrice)
}

// RoundPrice rounds half up to one decimal.
func RoundPrice(price float64) float64 {
	return math.Floor(price*10+0.5+priceEpsilon) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CalculateFinalPrice runs the daily adjustment. The order is fixed:
// demand move clamped to the absolute bounds, then the pre-race boost (or
// the post-race reset to base price), then the daily change clamp against
// the current price, then the absolute bounds again and rounding. A reset
// cut short by the daily clamp keeps the boost state so it resumes the next
// day.
func CalculateFinalPrice(in PriceInput) PriceOutcome {
	out := PriceOutcome{
		Demand:      DemandAdjustment(in.PreviousOwnershipPct, in.CurrentOwnershipPct),
		BoostActive: in.BoostActive,
		BoostRaceID: in.BoostRaceID,
	}

	price := ClampPrice(in.CurrentPrice + out.Demand)

	resetting := in.BoostActive && in.RaceFinished
	switch {
	case resetting:
		price = in.BasePrice
		out.BoostReset = true
	case in.DaysUntilRace != nil:
		out.Boost = boostIncrement(in)
		if out.Boost > 0 {
			price += out.Boost
			out.BoostActive = true
			out.BoostRaceID = in.RaceID
		}
	}

	price = ClampDailyChange(price, in.CurrentPrice)
	price = ClampPrice(price)
	out.Price = RoundPrice(price)

	// The boost stays recorded until the clamped walk back reaches base.
	if resetting && math.Abs(out.Price-RoundPrice(ClampPrice(in.BasePrice))) < priceEpsilon {
		out.BoostActive = false
		out.BoostRaceID = nil
	}
	return out
}

// boostIncrement is today's share of the pre-race boost. A rider already
// boosted for this race gains one day's accrual; a rider entering the window
// late catches up to the accrued total.
func boostIncrement(in PriceInput) float64 {
	days := *in.DaysUntilRace
	target := PreRaceBoost(in.BasePrice, days)
	if target == 0 {
		return 0
	}
	if in.BoostActive && sameRace(in.BoostRaceID, in.RaceID) {
		return target - PreRaceBoost(in.BasePrice, days+1)
	}
	return target
}

func sameRace(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// OwnershipPct is the share of teams rostering a cyclist, in [0, 100].
func OwnershipPct(owners, totalTeams int) float64 {
	if totalTeams <= 0 || owners <= 0 {
		return 0
	}
	return math.Min(100, float64(owners)*100/float64(totalTeams))
}
