// Package qibla computes the direction of the Kaaba from the user's position
// and turns raw device-orientation readings into a compass rotation.
package qibla

import "math"

const (
	KaabaLat = 21.4225
	KaabaLon = 39.8262

	earthRadiusKm = 6371.0
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Orientation is one deviceorientation event as reported by the web view.
type Orientation struct {
	Platform             Platform `json:"platform"`
	Alpha                *float64 `json:"alpha,omitempty"`
	WebkitCompassHeading *float64 `json:"webkit_compass_heading,omitempty"`
}

// Bearing is the initial great-circle bearing from (lat, lon) to the Kaaba,
// in degrees within [0, 360).
func Bearing(lat, lon float64) float64 {
	phi1 := radians(lat)
	phi2 := radians(KaabaLat)
	dLambda := radians(KaabaLon - lon)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return Normalize(degrees(math.Atan2(y, x)))
}

// Heading extracts the compass heading from an orientation reading.
// iOS exposes webkitCompassHeading directly; Android reports alpha
// counter-clockwise, so the heading is 360 - alpha. Missing or non-finite
// readings report ok=false.
func Heading(o Orientation) (float64, bool) {
	switch o.Platform {
	case PlatformIOS:
		if !finite(o.WebkitCompassHeading) {
			return 0, false
		}
		return Normalize(*o.WebkitCompassHeading), true
	default:
		if !finite(o.Alpha) {
			return 0, false
		}
		return Normalize(360 - *o.Alpha), true
	}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Rotation is how far the on-screen arrow turns so it points at the Kaaba
// while the device faces heading.
func Rotation(bearing, heading float64) float64 {
	return Normalize(bearing - heading)
}

// Distance is the haversine distance to the Kaaba in kilometres.
func Distance(lat, lon float64) float64 {
	phi1 := radians(lat)
	phi2 := radians(KaabaLat)
	dPhi := radians(KaabaLat - lat)
	dLambda := radians(KaabaLon - lon)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Normalize folds any angle into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
