package net

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ShareScheme prefixes links handed to other participants.
const ShareScheme = "localboard://"

// ErrInvalidShareLink is returned for links that do not name a host and port.
var ErrInvalidShareLink = errors.New("invalid share link")

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route to the internet; fall back to scanning interfaces.
		return interfaceIP()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func interfaceIP() string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	return "127.0.0.1"
}

// ShareLink formats the link other participants use to join.
func ShareLink(ip string, port int) string {
	return ShareScheme + net.JoinHostPort(ip, strconv.Itoa(port))
}

// ParseShareLink accepts a share link or a bare host:port and returns the
// host:port it names.
func ParseShareLink(link string) (string, error) {
	addr := strings.TrimPrefix(strings.TrimSpace(link), ShareScheme)
	addr = strings.TrimSuffix(addr, "/")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidShareLink, link, err)
	}
	n, err := strconv.Atoi(port)
	if host == "" || err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("%w %q", ErrInvalidShareLink, link)
	}
	return addr, nil
}

// RelayURL is the websocket endpoint of the hub at addr.
func RelayURL(addr string) string {
	return "ws://" + addr + RelayPath
}
