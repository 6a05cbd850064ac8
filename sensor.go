package bordo

import (
	"math"
	"math/rand"
)

// globalRand uses the math/rand top level functions, which are safe for concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 {
	return rand.Float64()
}

func (globalRand) Intn(n int) int {
	return rand.Intn(n)
}

// SensorSource generates synthetic engine sensor readings.
type SensorSource struct {
	rnd Rand
}

// NewSensorSource returns a source drawing from rnd. A nil rnd uses the
// process wide random source.
func NewSensorSource(rnd Rand) *SensorSource {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &SensorSource{
		rnd: rnd,
	}
}

func (s *SensorSource) Produce() SensorReading {
	return SensorReading{
		LambdaVoltage: round(s.uniform(0.1, 0.9), 2),
		CoolantTempC:  round(s.uniform(70.0, 100.0), 1),
		ThrottlePct:   round(s.uniform(0.0, 100.0), 1),
		ManifoldKPa:   round(s.uniform(30.0, 100.0), 1),
		CrankDeg:      s.rnd.Intn(361),
		KnockDetected: s.rnd.Intn(2) == 1,
	}
}

func (s *SensorSource) uniform(min, max float64) float64 {
	return min + s.rnd.Float64()*(max-min)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
