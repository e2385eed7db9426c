package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const dialTimeout = 300 * time.Millisecond

type tcpClient struct{}

func newTCPClient() *tcpClient { return &tcpClient{} }

func (c *tcpClient) TryCapture(ctx context.Context) (bool, string, error) {
	start, end := portRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, dialTimeout) {
			continue
		}
		text, err := request(ctx, addr)
		return true, text, err
	}
	return false, "", nil
}

func request(ctx context.Context, addr string) (string, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	cancel()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := io.WriteString(conn, captureRequest); err != nil {
		return "", err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read resident response: %w", err)
	}
	body, _ := io.ReadAll(br)

	switch status {
	case successResponse:
		return string(body), nil
	case errorResponse:
		if string(body) == ErrBusy.Error() {
			return "", ErrBusy
		}
		return "", errors.New(string(body))
	default:
		return "", fmt.Errorf("unexpected resident response %q", status)
	}
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
