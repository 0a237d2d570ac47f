package pwm

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
)

// DefaultPigpioAddr is where pigpiod listens unless started with -p.
const DefaultPigpioAddr = "localhost:8888"

// pigpiod socket interface command numbers.
const (
	cmdPWM   = 5  // set duty cycle
	cmdPRS   = 6  // set range
	cmdPFS   = 7  // set frequency
	cmdHWVER = 17 // hardware revision, used as a connection probe
	cmdPFG   = 23 // get frequency
)

const (
	pigpioDialTimeout    = 2 * time.Second
	pigpioCommandTimeout = 2 * time.Second
	pigpioFrameSize      = 16
)

// pigpioDriver talks to the pigpiod daemon over its socket interface:
// 16-byte little-endian frames of (cmd, p1, p2, p3), answered by
// (cmd, p1, p2, res) where a negative res is a pigpio error code.
type pigpioDriver struct {
	conn net.Conn
	mu   sync.Mutex
}

// dialPigpio connects to pigpiod at addr and probes the connection with
// a hardware-revision request. Any failure here is transient: the
// daemon may simply not be up yet.
func dialPigpio(addr string) (Driver, error) {
	errFactory := errors.New()

	if addr == "" {
		addr = DefaultPigpioAddr
	}

	conn, err := net.DialTimeout("tcp", addr, pigpioDialTimeout)
	if err != nil {
		return nil, errFactory.Wrap(ErrBackendUnavailable, err)
	}

	d := &pigpioDriver{conn: conn}
	if _, err := d.command(cmdHWVER, 0, 0); err != nil {
		conn.Close()
		return nil, errFactory.Wrap(ErrBackendUnavailable, err)
	}

	return d, nil
}

func (d *pigpioDriver) command(cmd, p1, p2 uint32) (int32, error) {
	errFactory := errors.New()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.conn.SetDeadline(time.Now().Add(pigpioCommandTimeout)); err != nil {
		return 0, errFactory.Wrap(ErrCommandFailed, err)
	}

	var req [pigpioFrameSize]byte
	binary.LittleEndian.PutUint32(req[0:4], cmd)
	binary.LittleEndian.PutUint32(req[4:8], p1)
	binary.LittleEndian.PutUint32(req[8:12], p2)

	if _, err := d.conn.Write(req[:]); err != nil {
		return 0, errFactory.Wrap(ErrCommandFailed, err)
	}

	var resp [pigpioFrameSize]byte
	if _, err := io.ReadFull(d.conn, resp[:]); err != nil {
		return 0, errFactory.Wrap(ErrCommandFailed, err)
	}

	return int32(binary.LittleEndian.Uint32(resp[12:16])), nil
}

// statusCommand runs a command whose result is a pigpio status: zero or
// positive on success, negative error code otherwise.
func (d *pigpioDriver) statusCommand(cmd, p1, p2 uint32) (int32, error) {
	errFactory := errors.New()

	res, err := d.command(cmd, p1, p2)
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, errFactory.WithData(ErrCommandFailed, res)
	}

	return res, nil
}

func (d *pigpioDriver) SetFrequency(pin, freqHz int) error {
	_, err := d.statusCommand(cmdPFS, uint32(pin), uint32(freqHz))
	return err
}

func (d *pigpioDriver) SetRange(pin, rng int) error {
	_, err := d.statusCommand(cmdPRS, uint32(pin), uint32(rng))
	return err
}

func (d *pigpioDriver) SetDutyCycle(pin, dutyCycle int) error {
	_, err := d.statusCommand(cmdPWM, uint32(pin), uint32(dutyCycle))
	return err
}

func (d *pigpioDriver) Frequency(pin int) (int, error) {
	res, err := d.statusCommand(cmdPFG, uint32(pin), 0)
	if err != nil {
		return 0, err
	}

	return int(res), nil
}

func (d *pigpioDriver) Close() error {
	return d.conn.Close()
}
