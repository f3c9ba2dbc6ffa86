package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// Place is the coarse location of an IP address.
type Place struct {
	City     string
	Province string
	Country  string
}

// LocationResolver resolves a city and province from an IP address.
type LocationResolver interface {
	Locate(ip string) (Place, error)
}

// Resolver provides city lookups backed by a MaxMind GeoIP2/GeoLite2 City database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the GeoIP database at the given path. When the path is empty, nil is returned.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Locate returns the English city name and first subdivision ISO code for ip.
func (r *Resolver) Locate(ip string) (Place, error) {
	if r == nil || r.reader == nil {
		return Place{}, ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Place{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.City(parsed)
	if err != nil {
		return Place{}, fmt.Errorf("geoip: lookup city: %w", err)
	}
	if record == nil {
		return Place{}, nil
	}
	place := Place{
		City:    record.City.Names["en"],
		Country: record.Country.IsoCode,
	}
	if len(record.Subdivisions) > 0 {
		place.Province = record.Subdivisions[0].IsoCode
	}
	return place, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// ClientIP extracts the caller address from a RemoteAddr or forwarded header value.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
