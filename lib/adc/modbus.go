package adc

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
)

// Modbus reads the sensor from an input register of an analog input module.
type Modbus struct {
	handler  connector
	client   modbus.Client
	register uint16
}

type connector interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// ModbusConfig addresses the module: "tcp://host:502" or a serial device
// path for RTU.
type ModbusConfig struct {
	Address  string `yaml:"address"`
	SlaveId  byte   `yaml:"slave_id"`
	Register uint16 `yaml:"register"`
	Baud     int    `yaml:"baud"`
}

func OpenModbus(conf ModbusConfig) (*Modbus, error) {
	var handler connector
	if addr, ok := strings.CutPrefix(conf.Address, "tcp://"); ok {
		h := modbus.NewTCPClientHandler(addr)
		h.Timeout = 5 * time.Second
		h.SlaveId = conf.SlaveId
		handler = h
	} else {
		h := modbus.NewRTUClientHandler(conf.Address)
		h.BaudRate = conf.Baud
		if h.BaudRate == 0 {
			h.BaudRate = 9600
		}
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = 2 * time.Second
		h.SlaveId = conf.SlaveId
		handler = h
	}
	if err := handler.Connect(); err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", conf.Address)
	}
	return &Modbus{handler: handler, client: modbus.NewClient(handler), register: conf.Register}, nil
}

func (self *Modbus) Sample() (uint16, error) {
	results, err := self.client.ReadInputRegisters(self.register, 1)
	if err != nil {
		return 0, err
	}
	if len(results) < 2 {
		return 0, errors.Errorf("short register read: %d bytes", len(results))
	}
	return binary.BigEndian.Uint16(results) & 0x3ff, nil
}

func (self *Modbus) Close() error {
	return self.handler.Close()
}
