package link

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

const pollInterval = 200 * time.Millisecond

// Port is a serial line carrying the exchange.
type Port struct {
	*Stream
	port *serial.Port
}

type timeoutReader struct {
	*serial.Port
}

// a read timeout on the port shows up as EOF.
func (self timeoutReader) Read(p []byte) (int, error) {
	n, err := self.Port.Read(p)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}

// OpenSerial opens the serial device wired between the two panels.
func OpenSerial(device string, baud int, mode Mode) (*Port, error) {
	conf := &serial.Config{Name: device, Baud: baud, ReadTimeout: pollInterval}
	port, err := serial.OpenPort(conf)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", device)
	}
	return &Port{Stream: NewStream(timeoutReader{port}, mode), port: port}, nil
}

func (self *Port) Close() error {
	return self.port.Close()
}
