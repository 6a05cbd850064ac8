package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jd3nn1s/bordo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPForwarder(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	udpAddr := pc.LocalAddr().(*net.UDPAddr)
	config := fmt.Sprintf(`
Server = "127.0.0.1"
Port = %d
`, udpAddr.Port)

	recvData := struct {
		data []byte
		len  int
	}{}

	dataChan := make(chan struct{}, 1)
	go func() {
		buffer := make([]byte, 1024)
		assert.NoError(t, pc.SetReadDeadline(time.Now().Add(time.Second*3)))
		n, _, err := pc.ReadFrom(buffer)
		assert.NoError(t, err)
		recvData.data = buffer
		recvData.len = n
		dataChan <- struct{}{}
	}()

	udp, err := NewUDPForwarderFromReader(bytes.NewBufferString(config))
	require.NoError(t, err)
	defer udp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = udp.Start(ctx)
	}()

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newRec := bordo.TelemetryRecord{
		Timestamp: ts,
		Reading: bordo.SensorReading{
			LambdaVoltage: 0.3,
			CoolantTempC:  75,
			ThrottlePct:   50,
			ManifoldKPa:   42.5,
			CrankDeg:      180,
			KnockDetected: true,
		},
		InjectionMs: 6.6,
		Status:      bordo.StatusOK,
	}
	assert.NoError(t, udp.Forward(nil, &newRec))

	<-dataChan
	assert.Equal(t, 55, recvData.len)
	assert.Equal(t, maxTelemetrySize, recvData.len)

	hdr := Header{}
	recvPacket := Packet{}
	rdr := bytes.NewReader(recvData.data)
	assert.NoError(t, binary.Read(rdr, binary.LittleEndian, &hdr))
	assert.NoError(t, binary.Read(rdr, binary.LittleEndian, &recvPacket))
	assert.Equal(t, uint8(TypeTelemetry), hdr.Type)
	assert.Equal(t, Packet{
		Timestamp:     ts.UnixNano(),
		LambdaVoltage: 0.3,
		CoolantTempC:  75,
		ThrottlePct:   50,
		ManifoldKPa:   42.5,
		CrankDeg:      180,
		Knock:         1,
		Status:        0,
		InjectionMs:   6.6,
	}, recvPacket)
}

func TestForwardDropsWhenFull(t *testing.T) {
	udp := &UDPForwarder{
		fwdChan: make(chan *bordo.TelemetryRecord, 1),
	}
	first := bordo.TelemetryRecord{InjectionMs: 1}
	second := bordo.TelemetryRecord{InjectionMs: 2}
	assert.NoError(t, udp.Forward(nil, &first))
	assert.NoError(t, udp.Forward(&first, &second))

	rec := <-udp.fwdChan
	assert.Equal(t, float64(1), rec.InjectionMs)
	// the queued value is a copy
	first.InjectionMs = 10
	assert.Equal(t, float64(1), rec.InjectionMs)
}

func TestBadConfig(t *testing.T) {
	_, err := NewUDPForwarderFromReader(bytes.NewBufferString("Port = \"not a number\""))
	assert.Error(t, err)
}
