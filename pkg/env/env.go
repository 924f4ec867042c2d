// Package env defines the environmental sensor collaborator. The
// particulate pipeline pairs each quorum-backed reading with one
// snapshot from this sensor; the values are trusted as-is once Init
// has succeeded.
package env

// DefaultSeaLevelHPa is the standard atmosphere reference used for
// altitude when no local sea-level pressure is configured.
const DefaultSeaLevelHPa = 1013.25

// Sensor wraps a register-bus environmental device (BME280 and
// friends). Init failing is the only fatal condition in the system:
// without it no measurement is meaningful.
type Sensor interface {
	Init() error
	Temperature() float64                 // °C
	Pressure() float64                    // Pa
	Humidity() float64                    // %RH
	Altitude(seaLevelHPa float64) float64 // m
}

// Sample is one environmental snapshot taken alongside a particulate
// reading.
type Sample struct {
	Temperature float64 // °C
	Pressure    float64 // Pa
	Humidity    float64 // %RH
	Altitude    float64 // m
}

// Read takes one snapshot from s.
func Read(s Sensor, seaLevelHPa float64) Sample {
	if seaLevelHPa <= 0 {
		seaLevelHPa = DefaultSeaLevelHPa
	}
	return Sample{
		Temperature: s.Temperature(),
		Pressure:    s.Pressure(),
		Humidity:    s.Humidity(),
		Altitude:    s.Altitude(seaLevelHPa),
	}
}
