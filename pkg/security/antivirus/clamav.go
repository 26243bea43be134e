package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// chunkSize keeps each INSTREAM frame well below clamd's StreamMaxLength.
const chunkSize = 64 * 1024

// ClamAVScanner streams files to a clamd daemon
type ClamAVScanner struct {
	address string        // TCP address (host:port) or Unix socket path
	timeout time.Duration // Connection and scan timeout
	dialer  net.Dialer
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner
// address: TCP "localhost:3310" or Unix socket "/var/run/clamav/clamd.sock"
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{
		address: address,
		timeout: timeout,
	}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

// Ping checks if the ClamAV daemon is reachable
func (c *ClamAVScanner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, c.network(), c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to clamd: %w", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)
	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return fmt.Errorf("failed to send PING: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read PING reply: %w", err)
	}
	if !strings.HasPrefix(reply, "PONG") {
		return fmt.Errorf("unexpected clamd reply %q", reply)
	}
	return nil
}

// Scan checks file for malware using the zINSTREAM command
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	result := ScanResult{ScannerName: c.Name()}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, c.network(), c.address)
	if err != nil {
		result.Error = fmt.Errorf("failed to connect to clamd: %w", err)
		return result
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		result.Error = fmt.Errorf("failed to send command: %w", err)
		return result
	}

	// Each frame is a big-endian uint32 length followed by the bytes; a zero
	// length terminates the stream.
	buf := make([]byte, chunkSize)
	var size [4]byte
	for {
		n, readErr := data.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(size[:], uint32(n))
			if _, err := conn.Write(size[:]); err != nil {
				result.Error = fmt.Errorf("failed to send size: %w", err)
				return result
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				result.Error = fmt.Errorf("failed to send file data: %w", err)
				return result
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			result.Error = fmt.Errorf("failed to read file data: %w", readErr)
			return result
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := conn.Write(size[:]); err != nil {
		result.Error = fmt.Errorf("failed to send end marker: %w", err)
		return result
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && !errors.Is(err, io.EOF) {
		result.Error = fmt.Errorf("failed to read response: %w", err)
		return result
	}
	return parseReply(result, reply)
}

// parseReply interprets "stream: OK", "stream: <name> FOUND" and "... ERROR".
func parseReply(result ScanResult, reply string) ScanResult {
	reply = strings.TrimSpace(strings.TrimRight(reply, "\x00"))

	switch {
	case strings.HasSuffix(reply, "FOUND"):
		result.Infected = true
		if _, threat, ok := strings.Cut(reply, ":"); ok {
			result.ThreatName = strings.TrimSpace(strings.TrimSuffix(threat, "FOUND"))
		}
	case strings.HasSuffix(reply, "ERROR"):
		result.Error = fmt.Errorf("scan error: %s", reply)
	case strings.HasSuffix(reply, "OK"):
	default:
		result.Error = fmt.Errorf("unexpected clamd reply %q", reply)
	}
	return result
}
