package bordo

const (
	baseInjectionMs = 5.0

	leanLambdaVoltage = 0.4
	richLambdaVoltage = 0.6
	coldCoolantTempC  = 80.0
	fullThrottlePct   = 80.0

	leanCorrection         = 1.2
	richCorrection         = 0.8
	coldEngineCorrection   = 1.1
	fullThrottleCorrection = 1.5
)

// EstimateInjection derives the injection time in milliseconds for a reading.
// Corrections compound in order: mixture, cold engine, full throttle.
func EstimateInjection(r SensorReading) float64 {
	ms := baseInjectionMs

	if r.LambdaVoltage < leanLambdaVoltage {
		ms *= leanCorrection
	} else if r.LambdaVoltage > richLambdaVoltage {
		ms *= richCorrection
	}

	if r.CoolantTempC < coldCoolantTempC {
		ms *= coldEngineCorrection
	}

	if r.ThrottlePct > fullThrottlePct {
		ms *= fullThrottleCorrection
	}

	return round(ms, 2)
}
