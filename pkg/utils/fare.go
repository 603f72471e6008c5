package utils

const (
	// Rates in KES
	BaseFare         = 150.0 // flat pickup charge
	PerStopSurcharge = 50.0  // added when pickup and dropoff differ
)

// EstimateFare produces a rough default cost for a ride when the rider
// does not supply one. Locations are free-text, so the estimate is a flat
// base plus a surcharge for any actual movement; routing-based pricing is
// out of scope.
func EstimateFare(pickupLocation, dropoffLocation string) float64 {
	if pickupLocation == dropoffLocation {
		return BaseFare
	}
	return BaseFare + PerStopSurcharge
}
