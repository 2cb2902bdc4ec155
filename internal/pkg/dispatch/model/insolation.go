package model

import (
	"math"
	"time"
)

// Array is the photovoltaic mounting. Tilt is in degrees from horizontal, the
// array faces the equator.
type Array struct {
	Tilt float64 `yaml:"tilt" json:"tilt"`
}

// Location is the site. Latitude is in degrees, Elevation in km.
type Location struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Elevation float64 `yaml:"elevation" json:"elevation"`
}

const solarConstant = 1353 // W/m^2

// Irradiance returns the clear-sky irradiance on the array in W/m^2 at t,
// using t's wall clock as local solar time.
func Irradiance(l Location, a Array, t time.Time) float64 {
	elevation := elevationAngle(l, t)
	if elevation <= 0 {
		return 0
	}

	airMass := 1 / math.Sin(elevation)
	x := l.Elevation * 0.14
	direct := solarConstant * ((1-x)*math.Pow(0.7, math.Pow(airMass, 0.678)) + x)
	diffuse := 0.1 * direct

	angle := incidentAngle(l, a, t)
	if angle > math.Pi/2 {
		return diffuse
	}
	return direct*math.Cos(angle) + diffuse
}

func incidentAngle(l Location, a Array, t time.Time) float64 {
	d := declinationAngle(t)
	tilted := radians(l.Latitude - a.Tilt)
	cosAngle := math.Cos(hourAngle(t))*math.Cos(d)*math.Cos(tilted) + math.Sin(d)*math.Sin(tilted)
	return math.Acos(math.Max(-1, math.Min(1, cosAngle)))
}

func elevationAngle(l Location, t time.Time) float64 {
	d := declinationAngle(t)
	lat := radians(l.Latitude)
	sinElev := math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(hourAngle(t))
	return math.Asin(math.Max(-1, math.Min(1, sinElev)))
}

func hourAngle(t time.Time) float64 {
	hourOfDay := float64(t.Hour()*3600+t.Minute()*60+t.Second()) / 3600
	return radians((hourOfDay - 12) * 15)
}

func declinationAngle(t time.Time) float64 {
	x := math.Sin(((float64(t.YearDay()) - 81) * 2 * math.Pi) / 365.25)
	return math.Asin(x * math.Sin(0.40928))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
