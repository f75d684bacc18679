package discovery

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(instance, host string, port int, ips ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceHiSLIP, DefaultDomain)
	e.HostName = host
	e.Port = port
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed.To4() != nil {
			e.AddrIPv4 = append(e.AddrIPv4, parsed)
		} else {
			e.AddrIPv6 = append(e.AddrIPv6, parsed)
		}
	}
	return e
}

func fakeBrowse(entries ...*zeroconf.ServiceEntry) BrowseFunc {
	return func(_ context.Context, _, _ string, out chan<- *zeroconf.ServiceEntry) error {
		for _, e := range entries {
			out <- e
		}
		close(out)
		return nil
	}
}

func TestBrowseDeduplicatesAndSorts(t *testing.T) {
	browse := fakeBrowse(
		entry(`VST\ rack-2`, "rack-2.local.", 4880, "10.0.0.2"),
		nil,
		entry(`SigGen\ rack-1`, "rack-1.local.", 4880, "fe80::1", "10.0.0.1"),
		entry(`VST\ rack-2`, "rack-2.local.", 4880, "10.0.0.2"),
	)
	found, err := Browse(context.Background(), browse, ServiceHiSLIP, "")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "SigGen rack-1", found[0].Instance)
	assert.Equal(t, "VST rack-2", found[1].Instance)
	assert.Equal(t, "10.0.0.1", found[0].Host())
	assert.Equal(t, "TCPIP0::10.0.0.1::hislip0::INSTR", found[0].Resource())
}

func TestBrowseError(t *testing.T) {
	boom := errors.New("no multicast interface")
	browse := func(context.Context, string, string, chan<- *zeroconf.ServiceEntry) error { return boom }
	_, err := Browse(context.Background(), browse, ServiceLXI, DefaultDomain)
	assert.ErrorIs(t, err, boom)
}

func TestBrowseErrorReleasesConsumer(t *testing.T) {
	boom := errors.New("resolver failed")
	var browseCtx context.Context
	browse := func(ctx context.Context, _, _ string, out chan<- *zeroconf.ServiceEntry) error {
		browseCtx = ctx
		out <- entry(`VST\ rack-2`, "rack-2.local.", 4880, "10.0.0.2")
		return boom
	}
	_, err := Browse(context.Background(), browse, ServiceHiSLIP, "")
	require.ErrorIs(t, err, boom)
	require.NotNil(t, browseCtx)
	assert.ErrorIs(t, browseCtx.Err(), context.Canceled)
}

func TestFirstMatchesInstance(t *testing.T) {
	browse := fakeBrowse(
		entry(`Analyzer\ A`, "a.local.", 4880),
		entry(`Generator\ B`, "b.local.", 4880),
	)
	inst, err := First(context.Background(), browse, ServiceHiSLIP, "generator")
	require.NoError(t, err)
	assert.Equal(t, "b.local", inst.Host())

	_, err = First(context.Background(), fakeBrowse(), ServiceHiSLIP, "")
	assert.ErrorIs(t, err, ErrNoInstrument)
}

func TestResourceStrings(t *testing.T) {
	inst := Instrument{Hostname: "sg.local.", Port: 5025, Addresses: []net.IP{net.ParseIP("fe80::2")}}
	inst.Service = ServiceLXI
	assert.Equal(t, "TCPIP0::fe80::2::inst0::INSTR", inst.Resource())
	inst.Service = "_scpi-raw._tcp"
	inst.Addresses = nil
	assert.Equal(t, "TCPIP0::sg.local::5025::SOCKET", inst.Resource())
}

func TestCleanInstance(t *testing.T) {
	assert.Equal(t, "PXIe 5842 on rack", cleanInstance(`PXIe\ 5842\ on\ rack`))
}
