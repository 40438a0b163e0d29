// Package device sends raw print jobs to a thermal printer.
package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultTCPPort = "9100"

var ErrEmptyInterface = errors.New("printer interface is empty")

// Device accepts complete print jobs.
type Device interface {
	Write(ctx context.Context, job []byte) error
	// String returns the interface string the device was opened with.
	String() string
}

// Open parses a printer interface string: "tcp://host[:port]" for network
// printers, "file:///path" or a bare path for local devices.
func Open(iface string, timeout time.Duration) (Device, error) {
	iface = strings.TrimSpace(iface)
	if iface == "" {
		return nil, ErrEmptyInterface
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	switch {
	case strings.HasPrefix(iface, "tcp://"):
		u, err := url.Parse(iface)
		if err != nil || u.Hostname() == "" {
			return nil, fmt.Errorf("invalid printer interface %q", iface)
		}
		port := u.Port()
		if port == "" {
			port = defaultTCPPort
		}

		return &TCP{iface: iface, addr: net.JoinHostPort(u.Hostname(), port), timeout: timeout}, nil
	case strings.HasPrefix(iface, "file://"):
		return &File{iface: iface, path: strings.TrimPrefix(iface, "file://")}, nil
	default:
		return &File{iface: iface, path: iface}, nil
	}
}

// TCP is a network printer listening on a raw socket.
type TCP struct {
	iface   string
	addr    string
	timeout time.Duration
}

// Write connects, sends the job and closes. The whole exchange is bounded by the timeout.
func (d *TCP) Write(ctx context.Context, job []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to printer %s: %w", d.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set printer deadline: %w", err)
		}
	}

	if _, err := conn.Write(job); err != nil {
		return fmt.Errorf("failed to write to printer %s: %w", d.addr, err)
	}

	return nil
}

func (d *TCP) String() string {
	return d.iface
}

// File is a character device or spool file.
type File struct {
	iface string
	path  string
}

func (d *File) Write(ctx context.Context, job []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(d.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open printer device %s: %w", d.path, err)
	}

	if _, err := f.Write(job); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to printer device %s: %w", d.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close printer device %s: %w", d.path, err)
	}

	return nil
}

func (d *File) String() string {
	return d.iface
}
