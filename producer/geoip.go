package producer

import (
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP fills the AS numbers and countries of a flow from MaxMind databases.
// A nil *GeoIP does nothing.
type GeoIP struct {
	asn     *geoip2.Reader
	country *geoip2.Reader
}

// OpenGeoIP opens the databases with a non-empty path. It returns nil when
// both paths are empty.
func OpenGeoIP(asnPath, countryPath string) (*GeoIP, error) {
	if asnPath == "" && countryPath == "" {
		return nil, nil
	}
	g := &GeoIP{}
	var err error
	if asnPath != "" {
		if g.asn, err = geoip2.Open(asnPath); err != nil {
			return nil, err
		}
	}
	if countryPath != "" {
		if g.country, err = geoip2.Open(countryPath); err != nil {
			g.Close()
			return nil, err
		}
	}
	return g, nil
}

func MapAsn(db *geoip2.Reader, addr netip.Addr, dest *uint32) {
	if !addr.IsValid() {
		return
	}
	entry, err := db.ASN(net.IP(addr.AsSlice()))
	if err != nil {
		return
	}
	*dest = uint32(entry.AutonomousSystemNumber)
}

func MapCountry(db *geoip2.Reader, addr netip.Addr, dest *string) {
	if !addr.IsValid() {
		return
	}
	entry, err := db.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return
	}
	*dest = entry.Country.IsoCode
}

// Enrich only sets AS numbers the agent did not report.
func (g *GeoIP) Enrich(msg *FlowMessage) {
	if g == nil {
		return
	}
	if g.asn != nil {
		if msg.SrcAs == 0 {
			MapAsn(g.asn, msg.SrcAddr, &msg.SrcAs)
		}
		if msg.DstAs == 0 {
			MapAsn(g.asn, msg.DstAddr, &msg.DstAs)
		}
	}
	if g.country != nil {
		MapCountry(g.country, msg.SrcAddr, &msg.SrcCountry)
		MapCountry(g.country, msg.DstAddr, &msg.DstCountry)
	}
}

func (g *GeoIP) Close() error {
	if g == nil {
		return nil
	}
	var err error
	if g.asn != nil {
		err = g.asn.Close()
	}
	if g.country != nil {
		if cerr := g.country.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
