package net

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a hosting participant advertises.
const ServiceType = "_localboard._tcp"

// DefaultBrowseTimeout bounds one discovery query.
const DefaultBrowseTimeout = 3 * time.Second

// Advertise publishes the relay on port until the returned server is shut
// down.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, []string{"LocalBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse queries the LAN for advertised relays and returns their
// host:port addresses, IPv4 only.
func Browse(timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan []string)
	go func() {
		var found []string
		seen := make(map[string]bool)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			addr := fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)
			if !seen[addr] {
				seen[addr] = true
				found = append(found, addr)
			}
		}
		done <- found
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     ServiceType,
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
		Logger:      log.New(io.Discard, "", 0),
	})
	close(entries)
	found := <-done
	if err != nil {
		return found, fmt.Errorf("mDNS query: %w", err)
	}
	return found, nil
}
