package pwm

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePigpiod answers pigpiod socket frames on a loopback listener.
type fakePigpiod struct {
	ln net.Listener

	mu    sync.Mutex
	calls [][3]uint32

	// results maps a command number to the res field to answer with.
	results map[uint32]int32
}

func newFakePigpiod(t *testing.T) *fakePigpiod {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakePigpiod{ln: ln, results: make(map[uint32]int32)}
	go f.serve()
	t.Cleanup(func() { ln.Close() })

	return f
}

func (f *fakePigpiod) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakePigpiod) handle(conn net.Conn) {
	defer conn.Close()

	var frame [pigpioFrameSize]byte
	for {
		if _, err := io.ReadFull(conn, frame[:]); err != nil {
			return
		}
		cmd := binary.LittleEndian.Uint32(frame[0:4])
		p1 := binary.LittleEndian.Uint32(frame[4:8])
		p2 := binary.LittleEndian.Uint32(frame[8:12])

		f.mu.Lock()
		f.calls = append(f.calls, [3]uint32{cmd, p1, p2})
		res := f.results[cmd]
		f.mu.Unlock()

		binary.LittleEndian.PutUint32(frame[12:16], uint32(res))
		if _, err := conn.Write(frame[:]); err != nil {
			return
		}
	}
}

func (f *fakePigpiod) recorded() [][3]uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][3]uint32, len(f.calls))
	copy(out, f.calls)

	return out
}

func TestPigpioCommandFraming(t *testing.T) {
	daemon := newFakePigpiod(t)
	daemon.results[cmdPFG] = 40000

	drv, err := dialPigpio(daemon.ln.Addr().String())
	require.NoError(t, err)
	defer drv.Close()

	require.NoError(t, drv.SetFrequency(23, 40000))
	require.NoError(t, drv.SetRange(23, 100))
	require.NoError(t, drv.SetDutyCycle(23, 28))

	freq, err := drv.Frequency(23)
	require.NoError(t, err)
	assert.Equal(t, 40000, freq)

	calls := daemon.recorded()
	expected := [][3]uint32{
		{cmdHWVER, 0, 0},
		{cmdPFS, 23, 40000},
		{cmdPRS, 23, 100},
		{cmdPWM, 23, 28},
		{cmdPFG, 23, 0},
	}
	assert.Equal(t, expected, calls)
}

func TestPigpioNegativeResultIsError(t *testing.T) {
	daemon := newFakePigpiod(t)
	daemon.results[cmdPWM] = -8 // PI_BAD_DUTYCYCLE

	drv, err := dialPigpio(daemon.ln.Addr().String())
	require.NoError(t, err)
	defer drv.Close()

	err = drv.SetDutyCycle(23, 200)
	assert.Error(t, err)
}

func TestPigpioDialFailureIsTransient(t *testing.T) {
	// Nothing listens here; the dial itself must fail.
	_, err := dialPigpio("127.0.0.1:1")
	require.Error(t, err)
}
