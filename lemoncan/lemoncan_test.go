package lemoncan

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/brutella/can"
	"github.com/stretchr/testify/assert"
)

type busStub struct {
	disconnected bool
	subscribed   bool
	stopChan     chan struct{}
	startedChan  chan struct{}
	publishChan  chan *can.Frame
}

func (bus *busStub) SubscribeFunc(can.HandlerFunc) {
	bus.subscribed = true
}

func (bus *busStub) ConnectAndPublish() error {
	bus.startedChan <- struct{}{}
	<-bus.stopChan
	return nil
}

func (bus *busStub) Disconnect() error {
	bus.disconnected = true
	bus.stopChan <- struct{}{}
	return nil
}

func (bus *busStub) Publish(f can.Frame) error {
	bus.publishChan <- &f
	return nil
}

func TestConnect(t *testing.T) {
	origNewBus := newBus
	bus := &busStub{
		stopChan: make(chan struct{}, 1),
	}
	newBus = func(string) (CANBus, error) {
		return bus, nil
	}
	defer func() {
		newBus = origNewBus
	}()

	c, err := Connect("fakeport")
	assert.NotNil(t, c)
	assert.NoError(t, err)
	assert.IsType(t, &busStub{}, c.bus)

	assert.NoError(t, c.Close())
	assert.True(t, bus.disconnected)
}

func TestCloseNotConnected(t *testing.T) {
	c := &Connection{}
	assert.Error(t, c.Close())
	assert.Error(t, c.SendCoolantTemp(90))
	assert.Error(t, c.SendOverheatAlert())
}

func TestStart(t *testing.T) {
	bus := &busStub{
		stopChan:    make(chan struct{}),
		startedChan: make(chan struct{}),
	}

	c := &Connection{
		bus: bus,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cb := Callbacks{
		Speed: func(int) {},
	}
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		assert.NoError(t, c.Start(ctx, cb))
		wg.Done()
	}()
	<-bus.startedChan
	assert.True(t, bus.subscribed)
	assert.NotNil(t, c.cb.Speed)
	cancel()
	wg.Wait()
}

func TestSendCoolantTemp(t *testing.T) {
	bus := &busStub{
		publishChan: make(chan *can.Frame, 1),
	}

	c := &Connection{
		bus: bus,
	}

	assert.NoError(t, c.SendCoolantTemp(87.5))
	f := <-bus.publishChan
	assert.Equal(t, frameCoolantTemp, f.ID)
	assert.Equal(t, uint8(2), f.Length)
	assert.Equal(t, uint16(875), binary.LittleEndian.Uint16(f.Data[0:2]))
}

func TestSendInjectionTime(t *testing.T) {
	bus := &busStub{
		publishChan: make(chan *can.Frame, 1),
	}

	c := &Connection{
		bus: bus,
	}

	assert.NoError(t, c.SendInjectionTime(6.6))
	f := <-bus.publishChan
	assert.Equal(t, uint32(frameInjectionTime), f.ID)
	assert.Equal(t, uint16(660), binary.LittleEndian.Uint16(f.Data[0:2]))

	// out of range values are never published
	assert.Error(t, c.SendInjectionTime(-1))
	assert.Error(t, c.SendInjectionTime(1000))
	assert.Len(t, bus.publishChan, 0)
}

func TestSendOverheatAlert(t *testing.T) {
	bus := &busStub{
		publishChan: make(chan *can.Frame, 1),
	}

	c := &Connection{
		bus: bus,
	}

	assert.NoError(t, c.SendOverheatAlert())
	f := <-bus.publishChan
	assert.Equal(t, uint32(frameOverheatAlert), f.ID)
	assert.Equal(t, uint8(1), f.Data[0])
}

func TestHandleFrame(t *testing.T) {
	data := struct {
		Speed           int
		RPM             int
		FuelConsumption int
	}{}

	c := &Connection{
		cb: Callbacks{
			Speed: func(v int) {
				data.Speed = v
			},
			RPM: func(v int) {
				data.RPM = v
			},
			FuelConsumption: func(v int) {
				data.FuelConsumption = v
			},
		},
	}
	expectedData := data

	buf := [8]byte{}
	binary.LittleEndian.PutUint16(buf[0:2], 1)
	c.handleFrame(can.Frame{
		ID:     frameSpeed,
		Length: 2,
		Data:   buf,
	})
	expectedData.Speed = 1
	assert.Equal(t, expectedData, data)

	binary.LittleEndian.PutUint16(buf[0:2], 2)
	c.handleFrame(can.Frame{
		ID:     frameRPM,
		Length: 2,
		Data:   buf,
	})
	expectedData.RPM = 2
	assert.Equal(t, expectedData, data)

	binary.LittleEndian.PutUint16(buf[0:2], 3)
	c.handleFrame(can.Frame{
		ID:     frameFuelConsumption,
		Length: 2,
		Data:   buf,
	})
	expectedData.FuelConsumption = 3
	assert.Equal(t, expectedData, data)

	// send unknown CAN frame
	c.handleFrame(can.Frame{
		ID: 400,
	})
	// no change to data
	assert.Equal(t, expectedData, data)

	// send too short a frame
	c.handleFrame(can.Frame{
		ID: frameSpeed,
	})
	// no change to data
	assert.Equal(t, expectedData, data)
}

func TestHandleFrameNoCallback(t *testing.T) {
	c := &Connection{}
	buf := [8]byte{}
	binary.LittleEndian.PutUint16(buf[0:2], 1)
	assert.NotPanics(t, func() {
		c.handleFrame(can.Frame{
			ID:     frameRPM,
			Length: 2,
			Data:   buf,
		})
	})
}

func TestUint16Result(t *testing.T) {
	_, err := uint16Result(can.Frame{})
	assert.Error(t, err)
	_, err = uint16Result(can.Frame{
		Length: 3,
	})
	assert.Error(t, err)

	buf := [8]byte{}
	binary.LittleEndian.PutUint16(buf[0:2], 300)
	n, err := uint16Result(can.Frame{
		Length: 2,
		Data:   buf,
	})
	assert.NoError(t, err)
	assert.Equal(t, 300, n)
}
