package connectivity

import (
	"fmt"
	"net"
	"strings"
)

// SystemInspector inspects the host's network interfaces. Among interfaces that are up, not
// loopback and hold a global unicast address, the first with a recognised transport is the
// active network; bridges and tunnels are reported only when nothing else qualifies.
type SystemInspector struct {
	// interfaces is replaceable in tests.
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

// NewSystemInspector returns an Inspector backed by net.Interfaces.
func NewSystemInspector() *SystemInspector {
	return &SystemInspector{
		interfaces: net.Interfaces,
		addrs:      func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
	}
}

func (s *SystemInspector) ActiveNetwork() (*ActiveNetwork, error) {
	ifaces, err := s.interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	var fallback *ActiveNetwork
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := s.addrs(iface)
		if err != nil || !hasUnicast(addrs) {
			continue
		}
		active := &ActiveNetwork{
			Name:       iface.Name,
			Transports: []Transport{classifyInterface(iface.Name)},
		}
		if active.Transports[0] != TransportOther {
			return active, nil
		}
		if fallback == nil {
			fallback = active
		}
	}
	return fallback, nil
}

func hasUnicast(addrs []net.Addr) bool {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// classifyInterface maps common Linux/BSD/macOS interface names to a transport.
func classifyInterface(name string) Transport {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "wl"), strings.HasPrefix(n, "wifi"), strings.HasPrefix(n, "ath"):
		return TransportWiFi
	case strings.HasPrefix(n, "ww"), strings.HasPrefix(n, "rmnet"), strings.HasPrefix(n, "ppp"), strings.HasPrefix(n, "ccmni"):
		return TransportCellular
	case strings.HasPrefix(n, "en"), strings.HasPrefix(n, "eth"), strings.HasPrefix(n, "em"):
		return TransportEthernet
	default:
		return TransportOther
	}
}
