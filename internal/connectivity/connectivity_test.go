package connectivity

import (
	"errors"
	"net"
	"testing"
)

type errInspector struct{}

func (errInspector) ActiveNetwork() (*ActiveNetwork, error) {
	return nil, errors.New("connectivity service unavailable")
}

func TestIsNetworkAvailable(t *testing.T) {
	tests := []struct {
		name      string
		inspector Inspector
		want      bool
	}{
		{"nil inspector", nil, false},
		{"no active network", &StaticInspector{}, false},
		{"inspector error", errInspector{}, false},
		{"wifi", NewStaticInspector("wifi"), true},
		{"cellular", NewStaticInspector("cellular"), true},
		{"ethernet", NewStaticInspector("ethernet"), true},
		{"other only", &StaticInspector{Network: &ActiveNetwork{Name: "vpn0", Transports: []Transport{TransportOther}}}, false},
		{"active but no transports", &StaticInspector{Network: &ActiveNetwork{Name: "x"}}, false},
		{"mixed", &StaticInspector{Network: &ActiveNetwork{Transports: []Transport{TransportOther, TransportCellular}}}, true},
		{"offline token", NewStaticInspector("none"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkAvailable(tt.inspector); got != tt.want {
				t.Errorf("IsNetworkAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTransport(t *testing.T) {
	tests := map[string]Transport{
		"wifi":      TransportWiFi,
		" Wi-Fi ":   TransportWiFi,
		"cellular":  TransportCellular,
		"wired":     TransportEthernet,
		"bluetooth": TransportOther,
	}
	for in, want := range tests {
		if got := ParseTransport(in); got != want {
			t.Errorf("ParseTransport(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSystemInspector_ActiveNetwork(t *testing.T) {
	unicast := []net.Addr{&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)}}
	linkLocal := []net.Addr{&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)}}

	tests := []struct {
		name     string
		ifaces   []net.Interface
		addrs    map[string][]net.Addr
		wantNil  bool
		wantName string
		want     Transport
	}{
		{
			name:    "loopback only",
			ifaces:  []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}},
			addrs:   map[string][]net.Addr{"lo": unicast},
			wantNil: true,
		},
		{
			name:    "down interface",
			ifaces:  []net.Interface{{Name: "wlan0"}},
			addrs:   map[string][]net.Addr{"wlan0": unicast},
			wantNil: true,
		},
		{
			name:    "up without unicast",
			ifaces:  []net.Interface{{Name: "eth0", Flags: net.FlagUp}},
			addrs:   map[string][]net.Addr{"eth0": linkLocal},
			wantNil: true,
		},
		{
			name: "wifi after loopback",
			ifaces: []net.Interface{
				{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
				{Name: "wlp2s0", Flags: net.FlagUp},
			},
			addrs:    map[string][]net.Addr{"lo": unicast, "wlp2s0": unicast},
			wantName: "wlp2s0",
			want:     TransportWiFi,
		},
		{
			name: "bridge before wifi",
			ifaces: []net.Interface{
				{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
				{Name: "docker0", Flags: net.FlagUp},
				{Name: "wlan0", Flags: net.FlagUp},
			},
			addrs: map[string][]net.Addr{
				"lo":      unicast,
				"docker0": {&net.IPNet{IP: net.ParseIP("172.17.0.1"), Mask: net.CIDRMask(16, 32)}},
				"wlan0":   unicast,
			},
			wantName: "wlan0",
			want:     TransportWiFi,
		},
		{
			name: "tunnel only",
			ifaces: []net.Interface{
				{Name: "tun0", Flags: net.FlagUp},
				{Name: "virbr0", Flags: net.FlagUp},
			},
			addrs:    map[string][]net.Addr{"tun0": unicast, "virbr0": unicast},
			wantName: "tun0",
			want:     TransportOther,
		},
		{
			name:     "cellular modem",
			ifaces:   []net.Interface{{Name: "rmnet_data0", Flags: net.FlagUp}},
			addrs:    map[string][]net.Addr{"rmnet_data0": unicast},
			wantName: "rmnet_data0",
			want:     TransportCellular,
		},
		{
			name:     "ethernet",
			ifaces:   []net.Interface{{Name: "enp0s31f6", Flags: net.FlagUp}},
			addrs:    map[string][]net.Addr{"enp0s31f6": unicast},
			wantName: "enp0s31f6",
			want:     TransportEthernet,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SystemInspector{
				interfaces: func() ([]net.Interface, error) { return tt.ifaces, nil },
				addrs:      func(i net.Interface) ([]net.Addr, error) { return tt.addrs[i.Name], nil },
			}
			got, err := s.ActiveNetwork()
			if err != nil {
				t.Fatalf("ActiveNetwork() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ActiveNetwork() = %+v, want nil", got)
				}
				if IsNetworkAvailable(s) {
					t.Error("IsNetworkAvailable() = true with no active network")
				}
				return
			}
			if got == nil {
				t.Fatal("ActiveNetwork() = nil, want network")
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if !got.HasTransport(tt.want) {
				t.Errorf("Transports = %v, want %v", got.Transports, tt.want)
			}
			if avail, want := IsNetworkAvailable(s), tt.want != TransportOther; avail != want {
				t.Errorf("IsNetworkAvailable() = %v, want %v", avail, want)
			}
		})
	}
}

func TestSystemInspector_ListError(t *testing.T) {
	s := &SystemInspector{
		interfaces: func() ([]net.Interface, error) { return nil, errors.New("permission denied") },
	}
	if _, err := s.ActiveNetwork(); err == nil {
		t.Fatal("ActiveNetwork() expected error")
	}
	if IsNetworkAvailable(s) {
		t.Error("IsNetworkAvailable() = true on inspector error")
	}
}
