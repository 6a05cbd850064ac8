package bordo

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var errCANNotConnected = errors.New("canbus is not initialized")

// CANForwarder mirrors telemetry onto the CAN bus for the dashboard gauges.
type CANForwarder struct {
	canBus *canBusRetryable
}

func (fwd *CANForwarder) Forward(prevRecord *TelemetryRecord, newRecord *TelemetryRecord) error {
	coolantChanged := prevRecord == nil ||
		prevRecord.Reading.CoolantTempC != newRecord.Reading.CoolantTempC
	injectionChanged := prevRecord == nil ||
		prevRecord.InjectionMs != newRecord.InjectionMs
	if !coolantChanged && !injectionChanged {
		return nil
	}

	canBus := fwd.canBus.CANBus()
	if canBus == nil {
		return errCANNotConnected
	}
	if coolantChanged {
		if err := canBus.SendCoolantTemp(newRecord.Reading.CoolantTempC); err != nil {
			return errors.Wrapf(err, "unable to send coolant temperature to CAN bus")
		}
	}
	if injectionChanged {
		if err := canBus.SendInjectionTime(newRecord.InjectionMs); err != nil {
			return errors.Wrapf(err, "unable to send injection time to CAN bus")
		}
	}
	return nil
}

// Notify raises the overheat lamp. The message text is not sent.
func (fwd *CANForwarder) Notify(message string) {
	canBus := fwd.canBus.CANBus()
	if canBus == nil {
		log.WithField("alert", message).Warn("canbus not connected, dropping alert")
		return
	}
	if err := canBus.SendOverheatAlert(); err != nil {
		log.WithField("err", err).Error("unable to send overheat alert to CAN bus")
	}
}
