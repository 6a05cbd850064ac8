package lemoncan

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/brutella/can"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// inbound frames
const (
	frameSpeed           uint32 = 0x100
	frameRPM                    = 0x101
	frameFuelConsumption        = 0x102
)

// outbound frames
const (
	frameCoolantTemp   uint32 = 0x110
	frameInjectionTime        = 0x111
	frameOverheatAlert        = 0x120
)

type IntResultFn func(v int)

type Callbacks struct {
	Speed           IntResultFn
	RPM             IntResultFn
	FuelConsumption IntResultFn
}

type CANBus interface {
	SubscribeFunc(can.HandlerFunc)
	ConnectAndPublish() error
	Disconnect() error
	Publish(can.Frame) error
}

type Connection struct {
	bus CANBus
	cb  Callbacks
}

var newBus = func(portName string) (CANBus, error) {
	bus, err := can.NewBusForInterfaceWithName(portName)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

func Connect(portName string) (*Connection, error) {
	bus, err := newBus(portName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open can interface %s", portName)
	}

	c := &Connection{
		bus: bus,
	}
	return c, nil
}

func (c *Connection) Start(ctx context.Context, cb Callbacks) error {
	c.cb = cb
	c.bus.SubscribeFunc(c.handleFrame)
	log.Info("CAN bus opened and subscribed")

	go func() {
		<-ctx.Done()
		log.Infof("stopping can bus: %v", ctx.Err())
		if err := c.bus.Disconnect(); err != nil {
			log.WithField("err", err).Warn("unable to disconnect canbus after context")
		}
	}()

	return c.bus.ConnectAndPublish()
}

func (c *Connection) Close() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Disconnect()
}

// SendCoolantTemp publishes the coolant temperature in tenths of a degree.
func (c *Connection) SendCoolantTemp(tempC float64) error {
	log.WithField("coolantTemp", tempC).Debug("sending coolant temperature over canbus")
	return c.publishUint16(frameCoolantTemp, tempC*10)
}

// SendInjectionTime publishes the injection time in hundredths of a millisecond.
func (c *Connection) SendInjectionTime(ms float64) error {
	log.WithField("injectionMs", ms).Debug("sending injection time over canbus")
	return c.publishUint16(frameInjectionTime, ms*100)
}

func (c *Connection) SendOverheatAlert() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Publish(can.Frame{
		ID:     frameOverheatAlert,
		Length: 1,
		Data:   [8]uint8{1},
	})
}

func (c *Connection) publishUint16(id uint32, v float64) error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	v = math.Round(v)
	if v < 0 || v > math.MaxUint16 {
		return errors.Errorf("value %v out of range for frame %#x", v, id)
	}
	f := can.Frame{
		ID:     id,
		Length: 2,
	}
	binary.LittleEndian.PutUint16(f.Data[0:2], uint16(v))
	return c.bus.Publish(f)
}

func (c *Connection) handleFrame(frame can.Frame) {
	log.WithField("canID", frame.ID).
		WithField("length", frame.Length).
		Debug("received canbus frame")

	var cb IntResultFn
	switch frame.ID {
	case frameSpeed:
		cb = c.cb.Speed
	case frameRPM:
		cb = c.cb.RPM
	case frameFuelConsumption:
		cb = c.cb.FuelConsumption
	default:
		log.WithField("canID", frame.ID).
			Error("unknown canID")
		return
	}

	if cb == nil {
		log.WithField("canID", frame.ID).Debug("no callback registered")
		return
	}

	v, err := uint16Result(frame)
	if err != nil {
		log.WithField("canID", frame.ID).
			WithField("err", err).
			Error("unable to convert to uint16")
		return
	}
	log.WithField("canID", frame.ID).
		WithField("intValue", v).
		Debug("calling callback function")
	cb(v)
}

func uint16Result(frame can.Frame) (int, error) {
	if frame.Length != 2 {
		return 0, errors.Errorf("incorrect frame size for uint16: %v", frame.Length)
	}
	return int(binary.LittleEndian.Uint16(frame.Data[0:2])), nil
}
