package network

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Opens a TCP listener with address reuse so a restarted daemon can rebind immediately
func Listen(ctx context.Context, address string, port int) (listener net.Listener, err error) {
	cfg := net.ListenConfig{
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	listener, err = cfg.Listen(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		err = fmt.Errorf("failed to listen on %s port %d: %v", address, port, err)
		return
	}
	return
}

// Resolves a listener interface setting: an IP address is used as is, otherwise the
// first IPv4 address of the named network interface. Empty means all addresses.
func ResolveInterface(name string) (address string, err error) {
	if name == "" || net.ParseIP(name) != nil {
		address = name
		return
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		err = fmt.Errorf("unknown interface %q: %v", name, err)
		return
	}

	addrs, err := iface.Addrs()
	if err != nil {
		err = fmt.Errorf("failed to read addresses of %q: %v", name, err)
		return
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if ok && ipNet.IP.To4() != nil {
			address = ipNet.IP.String()
			return
		}
	}

	err = fmt.Errorf("no IPv4 address found on interface %q", name)
	return
}
