// internal/poller/modbus/transporter.go
package modbus

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

const (
	rtuMinSize       = 4
	rtuMaxSize       = 256
	rtuExceptionSize = 5
)

// HalfDuplex implements modbus.Transporter for a 2-wire RS-485 bus.
// Every request is bracketed by the direction controller: transmit is
// enabled only while the request frame is on the wire.
type HalfDuplex struct {
	port     io.ReadWriter
	dir      *DirectionController
	packager modbus.Packager
	baudRate int
	log      zerolog.Logger

	sleep func(time.Duration)
}

func NewHalfDuplex(
	port io.ReadWriter,
	dir *DirectionController,
	packager modbus.Packager,
	baudRate int,
	log zerolog.Logger,
) *HalfDuplex {
	if dir == nil {
		dir = NewDirectionController(nil, log)
	}
	return &HalfDuplex{
		port:     port,
		dir:      dir,
		packager: packager,
		baudRate: baudRate,
		log:      log,
		sleep:    time.Sleep,
	}
}

// Send writes one request ADU and reads exactly one response ADU.
func (t *HalfDuplex) Send(aduRequest []byte) ([]byte, error) {
	if len(aduRequest) < rtuMinSize {
		return nil, frameError(CodeInvalidFunction, "request too short (%d bytes)", len(aduRequest))
	}

	if err := t.transmit(aduRequest); err != nil {
		return nil, timeoutError(err)
	}

	resp, err := t.receive(aduRequest)
	if err != nil {
		return nil, err
	}

	t.log.Debug().Hex("tx", aduRequest).Hex("rx", resp).Msg("exchange")
	return resp, nil
}

// transmit drives the bus only for the duration of the request frame.
func (t *HalfDuplex) transmit(adu []byte) error {
	t.dir.BeforeSend()
	defer t.dir.AfterSend()

	if _, err := t.port.Write(adu); err != nil {
		return err
	}

	// Write returns when the bytes are queued, not when they left the UART.
	t.sleep(t.charDelay() * time.Duration(len(adu)))
	return nil
}

func (t *HalfDuplex) receive(req []byte) ([]byte, error) {
	function := req[1]
	want := responseLength(req)

	var data [rtuMaxSize]byte

	// Any read error before a full frame (serial.ErrTimeout, EOF) counts as no answer.
	n, err := io.ReadAtLeast(t.port, data[:], rtuMinSize)
	if err != nil {
		return nil, timeoutError(err)
	}

	if data[0] != req[0] {
		return nil, frameError(CodeInvalidSlaveID, "response slave id %d does not match request %d", data[0], req[0])
	}

	switch data[1] {
	case function:
		if n > want {
			n = want
		}
		if n < want {
			m, err := io.ReadFull(t.port, data[n:want])
			n += m
			if err != nil {
				return nil, timeoutError(err)
			}
		}
	case function | 0x80:
		if n > rtuExceptionSize {
			n = rtuExceptionSize
		}
		if n < rtuExceptionSize {
			m, err := io.ReadFull(t.port, data[n:rtuExceptionSize])
			n += m
			if err != nil {
				return nil, timeoutError(err)
			}
		}
	default:
		return nil, frameError(CodeInvalidFunction, "response function 0x%02X does not match request 0x%02X", data[1], function)
	}

	resp := make([]byte, n)
	copy(resp, data[:n])

	if t.packager != nil {
		if _, err := t.packager.Decode(resp); err != nil {
			return nil, frameError(CodeInvalidCRC, "%v", err)
		}
	}

	return resp, nil
}

// charDelay is the time one 11-bit character occupies the wire.
func (t *HalfDuplex) charDelay() time.Duration {
	if t.baudRate <= 0 || t.baudRate > 19200 {
		return 750 * time.Microsecond
	}
	return time.Duration(11_000_000/t.baudRate) * time.Microsecond
}

// responseLength computes the expected response ADU length for read requests.
func responseLength(adu []byte) int {
	switch adu[1] {
	case modbus.FuncCodeReadInputRegisters, modbus.FuncCodeReadHoldingRegisters:
		if len(adu) < 6 {
			return rtuMinSize
		}
		count := int(binary.BigEndian.Uint16(adu[4:]))
		return rtuMinSize + 1 + count*2
	default:
		return rtuMinSize
	}
}
