package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/bordo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Header struct {
	Type uint8
}

const (
	TypeTelemetry = 1
)

// Packet is the fixed size wire form of a telemetry record.
type Packet struct {
	Timestamp     int64
	LambdaVoltage float64
	CoolantTempC  float64
	ThrottlePct   float64
	ManifoldKPa   float64
	CrankDeg      int32
	Knock         uint8
	Status        uint8
	InjectionMs   float64
}

var maxTelemetrySize = binary.Size(Header{}) + binary.Size(Packet{})

const sendInterval = 100 * time.Millisecond

type UDPConfig struct {
	Server string
	Port   int
}

type UDPForwarder struct {
	Config *UDPConfig

	conn    net.Conn
	fwdChan chan *bordo.TelemetryRecord
}

func NewUDPForwarder(config *UDPConfig) (*UDPForwarder, error) {
	udp := &UDPForwarder{
		Config:  config,
		fwdChan: make(chan *bordo.TelemetryRecord, 1),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func NewUDPForwarderFromReader(configReader io.Reader) (*UDPForwarder, error) {
	config := UDPConfig{}
	if _, err := toml.NewDecoder(configReader).Decode(&config); err != nil {
		return nil, errors.Wrapf(err, "unable to load udp forwarder configuration")
	}
	return NewUDPForwarder(&config)
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

func (udp *UDPForwarder) Forward(prevRecord *bordo.TelemetryRecord, newRecord *bordo.TelemetryRecord) error {
	recCopy := *newRecord
	select {
	// copy the record as we're processing it on another go-routine
	case udp.fwdChan <- &recCopy:
	default:
		// if channel is full, skip
	}
	return nil
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	limiter := time.NewTicker(sendInterval)
	defer limiter.Stop()
	for {
		select {
		case <-limiter.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case rec := <-udp.fwdChan:
			if err := udp.forward(rec); err != nil {
				log.Error("unable to forward telemetry to server ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func newPacket(rec *bordo.TelemetryRecord) Packet {
	p := Packet{
		Timestamp:     rec.Timestamp.UnixNano(),
		LambdaVoltage: rec.Reading.LambdaVoltage,
		CoolantTempC:  rec.Reading.CoolantTempC,
		ThrottlePct:   rec.Reading.ThrottlePct,
		ManifoldKPa:   rec.Reading.ManifoldKPa,
		CrankDeg:      int32(rec.Reading.CrankDeg),
		Status:        uint8(rec.Status),
		InjectionMs:   rec.InjectionMs,
	}
	if rec.Reading.KnockDetected {
		p.Knock = 1
	}
	return p
}

func (udp *UDPForwarder) forward(rec *bordo.TelemetryRecord) error {
	buf := bytes.NewBuffer(make([]byte, 0, maxTelemetrySize))
	hdr := Header{
		Type: TypeTelemetry,
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	p := newPacket(rec)
	if err := binary.Write(buf, binary.LittleEndian, &p); err != nil {
		return errors.Wrap(err, "unable to write telemetry udp packet")
	}
	_, err := udp.conn.Write(buf.Bytes())
	return errors.Wrap(err, "unable to send telemetry udp packet")
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := maxTelemetrySize * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
