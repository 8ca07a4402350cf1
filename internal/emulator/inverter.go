// internal/emulator/inverter.go
package emulator

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
)

// Fault makes the emulated inverter misbehave for one request.
type Fault uint8

const (
	FaultNone       Fault = iota
	FaultSilent           // no answer; the reader times out
	FaultBadCRC           // answer with a corrupted checksum
	FaultWrongSlave       // answer from another slave id
	FaultException        // answer with exception 0x04 (slave device failure)
)

// Inverter emulates a Solis inverter on the serial side of the bus.
// It implements io.ReadWriteCloser so it can stand in for a serial port.
type Inverter struct {
	mu       sync.Mutex
	codec    *modbus.RTUClientHandler
	regs     map[uint16]uint16
	pending  []byte
	faults   []Fault
	requests int
	closed   bool

	onRequest func(*Inverter)
}

// New returns an inverter answering as slaveID with all registers zero.
func New(slaveID uint8) *Inverter {
	codec := modbus.NewRTUClientHandler("")
	codec.SlaveId = slaveID
	return &Inverter{
		codec: codec,
		regs:  make(map[uint16]uint16),
	}
}

// SetRegisters stores words starting at a zero-based address.
func (inv *Inverter) SetRegisters(start uint16, words ...uint16) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i, w := range words {
		inv.regs[start+uint16(i)] = w
	}
}

// Register returns one stored word.
func (inv *Inverter) Register(addr uint16) uint16 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.regs[addr]
}

// InjectFaults queues faults, consumed one per request.
func (inv *Inverter) InjectFaults(faults ...Fault) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.faults = append(inv.faults, faults...)
}

// Requests is the number of well-formed requests seen.
func (inv *Inverter) Requests() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.requests
}

// ---- io.ReadWriteCloser ----

// Write accepts one request ADU and prepares the answer.
func (inv *Inverter) Write(p []byte) (int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.closed {
		return 0, errors.New("emulator: port closed")
	}

	inv.pending = nil

	if len(p) < 4 {
		return len(p), nil
	}
	req, err := inv.codec.Decode(p)
	if err != nil || p[0] != inv.codec.SlaveId {
		// Real slaves stay silent on noise and foreign frames.
		return len(p), nil
	}
	inv.requests++

	if inv.onRequest != nil {
		inv.onRequest(inv)
	}

	fault := FaultNone
	if len(inv.faults) > 0 {
		fault = inv.faults[0]
		inv.faults = inv.faults[1:]
	}
	if fault == FaultSilent {
		return len(p), nil
	}

	resp := inv.respond(req, fault)

	adu, err := inv.codec.Encode(resp)
	if err != nil {
		return len(p), nil
	}

	switch fault {
	case FaultBadCRC:
		adu[len(adu)-1] ^= 0xFF
	case FaultWrongSlave:
		adu[0]++
	}

	inv.pending = adu
	return len(p), nil
}

// Read drains the prepared answer. With nothing pending it times out like a real port.
func (inv *Inverter) Read(p []byte) (int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if len(inv.pending) == 0 {
		return 0, serial.ErrTimeout
	}
	n := copy(p, inv.pending)
	inv.pending = inv.pending[n:]
	return n, nil
}

func (inv *Inverter) Close() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.closed = true
	return nil
}

func (inv *Inverter) respond(req *modbus.ProtocolDataUnit, fault Fault) *modbus.ProtocolDataUnit {
	exception := func(code byte) *modbus.ProtocolDataUnit {
		return &modbus.ProtocolDataUnit{
			FunctionCode: req.FunctionCode | 0x80,
			Data:         []byte{code},
		}
	}

	if fault == FaultException {
		return exception(modbus.ExceptionCodeServerDeviceFailure)
	}
	if req.FunctionCode != modbus.FuncCodeReadInputRegisters {
		return exception(modbus.ExceptionCodeIllegalFunction)
	}
	if len(req.Data) != 4 {
		return exception(modbus.ExceptionCodeIllegalDataValue)
	}

	start := binary.BigEndian.Uint16(req.Data[0:2])
	qty := binary.BigEndian.Uint16(req.Data[2:4])
	if qty < 1 || qty > 125 {
		return exception(modbus.ExceptionCodeIllegalDataValue)
	}

	data := make([]byte, 1+int(qty)*2)
	data[0] = byte(qty * 2)
	for i := uint16(0); i < qty; i++ {
		binary.BigEndian.PutUint16(data[1+2*i:], inv.regs[start+i])
	}

	return &modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: data}
}

// ---- convenience ----

// scaled encodes a physical value into one word with the given divisor.
func scaled(v, scale float64) uint16 {
	if v <= 0 {
		return 0
	}
	return uint16(math.Round(v * scale))
}

func hiLo(v uint32) (uint16, uint16) {
	return uint16(v >> 16), uint16(v)
}

// Values are the physical quantities the emulated inverter reports.
type Values struct {
	Power       float64
	DCPower     float64
	DCVoltage   float64
	DCCurrent   float64
	ACVoltage   float64
	ACCurrent   float64
	ACFrequency float64
	Temperature float64

	EnergyToday   float64
	EnergyLastDay float64

	EnergyThisMonth uint32
	EnergyLastMonth uint32
	EnergyThisYear  uint32
	EnergyLastYear  uint32
	TotalEnergy     uint32
}

// Zero-based register addresses of the Solis map.
const (
	regPower         = 3005
	regDCPower       = 3007
	regTotalEnergy   = 3008
	regThisMonth     = 3010
	regLastMonth     = 3012
	regEnergyToday   = 3014
	regEnergyLastDay = 3015
	regThisYear      = 3016
	regLastYear      = 3018
	regDCVoltage     = 3021
	regDCCurrent     = 3022
	regACVoltage     = 3035
	regACCurrent     = 3038
	regTemperature   = 3041
	regACFrequency   = 3042
)

// SetValues encodes v into the register image.
func (inv *Inverter) SetValues(v Values) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.setValuesLocked(v)
}

func (inv *Inverter) setValuesLocked(v Values) {
	inv.regs[regPower] = scaled(v.Power, 1)
	inv.regs[regDCPower] = scaled(v.DCPower, 1)
	inv.regs[regDCVoltage] = scaled(v.DCVoltage, 10)
	inv.regs[regDCCurrent] = scaled(v.DCCurrent, 10)
	inv.regs[regACVoltage] = scaled(v.ACVoltage, 10)
	inv.regs[regACCurrent] = scaled(v.ACCurrent, 10)
	inv.regs[regTemperature] = scaled(v.Temperature, 10)
	inv.regs[regACFrequency] = scaled(v.ACFrequency, 100)
	inv.regs[regEnergyToday] = scaled(v.EnergyToday, 10)
	inv.regs[regEnergyLastDay] = scaled(v.EnergyLastDay, 10)

	for addr, val := range map[uint16]uint32{
		regTotalEnergy: v.TotalEnergy,
		regThisMonth:   v.EnergyThisMonth,
		regLastMonth:   v.EnergyLastMonth,
		regThisYear:    v.EnergyThisYear,
		regLastYear:    v.EnergyLastYear,
	} {
		hi, lo := hiLo(val)
		inv.regs[addr] = hi
		inv.regs[addr+1] = lo
	}
}

// NewSolarDay returns an inverter whose output follows a clear-sky day
// curve for the local time returned by now, peaking at peakWatts.
func NewSolarDay(slaveID uint8, peakWatts float64, now func() time.Time) *Inverter {
	inv := New(slaveID)
	inv.onRequest = func(inv *Inverter) {
		inv.setValuesLocked(solarValues(now(), peakWatts))
	}
	inv.setValuesLocked(solarValues(now(), peakWatts))
	return inv
}

func solarValues(t time.Time, peak float64) Values {
	hour := float64(t.Hour()) + float64(t.Minute())/60

	// Production between 06:00 and 20:00, sine shaped.
	frac := 0.0
	if hour > 6 && hour < 20 {
		frac = math.Sin(math.Pi * (hour - 6) / 14)
	}

	power := peak * frac
	dcU := 0.0
	if frac > 0 {
		dcU = 280 + 60*frac
	}
	dcI := 0.0
	if dcU > 0 {
		dcI = power / 0.97 / dcU
	}

	// Energy so far today: integral of the sine from 06:00.
	today := 0.0
	if hour > 6 {
		h := math.Min(hour, 20) - 6
		today = peak / 1000 * 14 / math.Pi * (1 - math.Cos(math.Pi*h/14))
	}
	dayTotal := peak / 1000 * 28 / math.Pi

	v := Values{
		Power:           power,
		DCPower:         power / 0.97,
		DCVoltage:       dcU,
		DCCurrent:       dcI,
		ACFrequency:     50,
		Temperature:     25 + 20*frac,
		EnergyToday:     today,
		EnergyLastDay:   dayTotal,
		EnergyThisMonth: uint32(dayTotal * float64(t.Day()-1)),
		EnergyLastMonth: uint32(dayTotal * 30),
		EnergyThisYear:  uint32(dayTotal * float64(t.YearDay()-1)),
		EnergyLastYear:  uint32(dayTotal * 365),
		TotalEnergy:     uint32(dayTotal * 365 * 3),
	}
	if power > 0 {
		v.ACVoltage = 230
		v.ACCurrent = power / 230
	}
	return v
}
