package zone

import (
	"strings"

	"github.com/miekg/dns"
	"github.com/projectdiscovery/gologger"
	"golang.org/x/net/publicsuffix"
)

const (
	// MinFields is the number of fields an NS record line needs:
	// owner, ttl (or class), class, type
	MinFields = 4

	classIN = "in"
	typeNS  = "ns"
)

// Parser turns zone listing lines into candidate domains.
// A Parser carries the last accepted owner name, so every file
// (or shard) must be read with its own Parser.
type Parser struct {
	// Source is used to annotate warnings (usually the file name)
	Source string
	// KeepPublicSuffixes disables rejection of delegations whose owner
	// name is itself a public suffix (ex: co.uk inside the uk zone)
	KeepPublicSuffixes bool

	lastDomain string
	rows       int64
	skipped    int64
	accepted   int64
}

// NewParser returns a parser for the named source
func NewParser(source string) *Parser {
	return &Parser{Source: source}
}

// Parse evaluates a single line and returns the candidate domain if the
// line is an eligible NS delegation that differs from the previous one.
// Every call counts as a processed row.
func (p *Parser) Parse(line string) (string, bool) {
	p.rows++
	fields := strings.Fields(line)
	if len(fields) < MinFields {
		if len(fields) > 0 && !strings.HasPrefix(fields[0], ";") {
			p.skipped++
			gologger.Warning().Msgf("%v: skipping short record at row %d: %q", p.Source, p.rows, line)
		}
		return "", false
	}
	if !strings.EqualFold(fields[2], classIN) || !strings.EqualFold(fields[3], typeNS) {
		return "", false
	}
	name := strings.ToLower(strings.TrimSuffix(fields[0], "."))
	if !p.eligible(name) {
		return "", false
	}
	if name == p.lastDomain {
		return "", false
	}
	p.lastDomain = name
	p.accepted++
	return name, true
}

func (p *Parser) eligible(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	// apex of the zone, ex: `com.`
	if dns.CountLabel(name) < 2 {
		return false
	}
	if !p.KeepPublicSuffixes {
		if suffix, icann := publicsuffix.PublicSuffix(name); icann && suffix == name {
			return false
		}
	}
	return true
}

// Rows returns the number of lines seen
func (p *Parser) Rows() int64 {
	return p.rows
}

// Skipped returns the number of malformed lines seen
func (p *Parser) Skipped() int64 {
	return p.skipped
}

// Accepted returns the number of candidates emitted
func (p *Parser) Accepted() int64 {
	return p.accepted
}

// Registrable returns domain without its public suffix,
// ex: paypa1-login.co.uk -> paypa1-login
func Registrable(domain string) string {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	if label := strings.TrimSuffix(domain, "."+suffix); label != domain {
		return label
	}
	return domain
}
