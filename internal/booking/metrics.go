package booking

import "math"

// EcoMetrics are all linear in trip distance.
type EcoMetrics struct {
	Fare      float64
	FuelSaved float64
	CO2Saved  float64
	EcoPoints int
}

const (
	farePerKm   = 10
	fuelPerKm   = 0.2
	co2PerKm    = 0.5
	pointsPerKm = 5
)

func ComputeEcoMetrics(distanceKm float64) EcoMetrics {
	return EcoMetrics{
		Fare:      round2(distanceKm * farePerKm),
		FuelSaved: round2(distanceKm * fuelPerKm),
		CO2Saved:  round2(distanceKm * co2PerKm),
		EcoPoints: int(math.Floor(distanceKm * pointsPerKm)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
