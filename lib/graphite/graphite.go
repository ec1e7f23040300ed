// Package graphite sends samples to carbon using the plaintext protocol.
package graphite

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const BatchSize = 4096

// Recorder receives samples. The slave records one per control loop sample.
type Recorder interface {
	Add(path string, at time.Time, value float64) error
	Flush() error
}

type Graphite struct {
	host   string
	prefix string
	mu     sync.Mutex
	buffer strings.Builder
}

var dialer = func(network, address string) (io.WriteCloser, error) {
	return net.DialTimeout(network, address, 5*time.Second)
}

// New returns a client for the carbon daemon on host. Paths are prefixed with
// prefix and a dot, when prefix is not empty.
func New(host, prefix string) *Graphite {
	if !strings.Contains(host, ":") {
		host += ":2003"
	}
	return &Graphite{host: host, prefix: prefix}
}

func (graphite *Graphite) Add(path string, at time.Time, value float64) error {
	if graphite.prefix != "" {
		path = graphite.prefix + "." + path
	}
	graphite.mu.Lock()
	fmt.Fprintf(&graphite.buffer, "%s %v %d\n", path, value, at.Unix())
	full := graphite.buffer.Len() > BatchSize
	graphite.mu.Unlock()
	if full {
		return graphite.Flush()
	}
	return nil
}

func (graphite *Graphite) Flush() error {
	graphite.mu.Lock()
	defer graphite.mu.Unlock()
	if graphite.buffer.Len() == 0 {
		return nil
	}
	conn, err := dialer("tcp", graphite.host)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := io.WriteString(conn, graphite.buffer.String()); err != nil {
		return err
	}
	graphite.buffer.Reset()
	return nil
}

// Discard drops every sample, for nodes with no carbon host configured.
type Discard struct{}

func (Discard) Add(path string, at time.Time, value float64) error { return nil }
func (Discard) Flush() error                                       { return nil }
