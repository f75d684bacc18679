// Package discovery finds LAN signal generators that advertise themselves
// over mDNS, as LXI instruments do.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/grandcat/zeroconf"
)

// Services advertised by LAN instruments.
const (
	ServiceHiSLIP = "_hislip._tcp"
	ServiceLXI    = "_lxi._tcp"
	ServiceVXI11  = "_vxi-11._tcp"

	DefaultDomain = "local."
)

// ErrNoInstrument is returned by First when a browse finds nothing.
var ErrNoInstrument = errors.New("discovery: no instrument found")

// Instrument is a discovered instrument endpoint.
type Instrument struct {
	Instance  string // advertised name, e.g. "PXIe-5842 on rack-3"
	Service   string
	Hostname  string // e.g. "rack-3.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Host returns the address to dial: the first IPv4 address when one was
// advertised, the hostname otherwise.
func (i Instrument) Host() string {
	for _, ip := range i.Addresses {
		if ip.To4() != nil {
			return ip.String()
		}
	}
	if len(i.Addresses) > 0 {
		return i.Addresses[0].String()
	}
	return strings.TrimSuffix(i.Hostname, ".")
}

// Resource returns the VISA resource string for the instrument.
func (i Instrument) Resource() string {
	switch i.Service {
	case ServiceHiSLIP:
		return fmt.Sprintf("TCPIP0::%s::hislip0::INSTR", i.Host())
	case ServiceVXI11, ServiceLXI:
		return fmt.Sprintf("TCPIP0::%s::inst0::INSTR", i.Host())
	default:
		return fmt.Sprintf("TCPIP0::%s::%d::SOCKET", i.Host(), i.Port)
	}
}

// BrowseFunc streams service entries into entries until ctx ends, closing
// entries when done. It matches zeroconf.Resolver.Browse.
type BrowseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Zeroconf browses with a fresh zeroconf resolver on all interfaces.
func Zeroconf(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("resolver error: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// Browse collects instruments advertising service until ctx is done. Entries
// are deduplicated by host and port and returned sorted by instance name.
// A nil browse uses Zeroconf.
func Browse(ctx context.Context, browse BrowseFunc, service, domain string) ([]Instrument, error) {
	if browse == nil {
		browse = Zeroconf
	}
	if domain == "" {
		domain = DefaultDomain
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Instrument)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)
				found[fmt.Sprintf("%s|%d", e.HostName, e.Port)] = Instrument{
					Instance:  cleanInstance(e.Instance),
					Service:   service,
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := browse(ctx, service, domain, entries); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("browse %s: %w", service, err)
	}
	<-done

	out := make([]Instrument, 0, len(found))
	for _, inst := range found {
		out = append(out, inst)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Instance != out[b].Instance {
			return out[a].Instance < out[b].Instance
		}
		return out[a].Hostname < out[b].Hostname
	})
	return out, nil
}

// First browses and returns the first instrument whose instance name
// contains match (case-insensitive); an empty match accepts any.
func First(ctx context.Context, browse BrowseFunc, service, match string) (Instrument, error) {
	found, err := Browse(ctx, browse, service, DefaultDomain)
	if err != nil {
		return Instrument{}, err
	}
	match = strings.ToLower(match)
	for _, inst := range found {
		if strings.Contains(strings.ToLower(inst.Instance), match) {
			return inst, nil
		}
	}
	return Instrument{}, ErrNoInstrument
}

// cleanInstance removes Zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
