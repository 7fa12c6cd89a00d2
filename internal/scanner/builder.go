// internal/scanner/builder.go
package scanner

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	smodbus "github.com/tamzrod/modbus-scanner/internal/scanner/modbus"
)

// Target is what Build needs to reach one device.
type Target struct {
	Host    string
	Port    int
	UnitID  uint8
	Timeout time.Duration

	WireLogger *log.Logger
}

// Endpoint is host:port, IPv6-safe.
func (t Target) Endpoint() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Dialer opens a client and returns its closer.
type Dialer func() (Client, func() error, error)

// Build returns a Dialer for a Modbus TCP target.
// ONE connection attempt per call. No retries.
func Build(t Target) Dialer {
	return func() (Client, func() error, error) {
		c, err := smodbus.New(smodbus.Config{
			Endpoint:   t.Endpoint(),
			UnitID:     t.UnitID,
			Timeout:    t.Timeout,
			WireLogger: t.WireLogger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("scanner: dial %s: %w", t.Endpoint(), err)
		}
		return c, c.Close, nil
	}
}
