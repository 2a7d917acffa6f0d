package record

import (
	"regexp"
	"strings"
)

// LicenseType orders rights statements from none to most permissive.
type LicenseType int

const (
	LicenseNone LicenseType = iota
	LicenseClosed
	LicenseRestricted
	LicenseOpen
)

func (l LicenseType) String() string {
	switch l {
	case LicenseOpen:
		return "OPEN"
	case LicenseRestricted:
		return "RESTRICTED"
	case LicenseClosed:
		return "CLOSED"
	}
	return "NONE"
}

var (
	openLicense       = regexp.MustCompile(`^https?://(www\.)?(creativecommons\.org/(publicdomain/(mark|zero)/|licenses/by(-sa)?/)|rightsstatements\.org/vocab/NoC-(US|OKLR)/)`)
	restrictedLicense = regexp.MustCompile(`^https?://(www\.)?(creativecommons\.org/licenses/by-(nc|nd|nc-sa|nc-nd)/|rightsstatements\.org/vocab/(NoC-NC|NoC-CR|InC-EDU)/)`)
	closedLicense     = regexp.MustCompile(`^https?://(www\.)?(rightsstatements\.org/vocab/(InC|InC-OW-EU|CNE|UND|NKC|InC-NC|InC-RUU)/|europeana\.eu/rights/)`)
)

// ClassifyLicense maps a rights statement URL to its license type.
// Unrecognized statements are LicenseNone.
func ClassifyLicense(rights string) LicenseType {
	r := strings.TrimSpace(rights)
	switch {
	case r == "":
		return LicenseNone
	case openLicense.MatchString(r):
		return LicenseOpen
	case restrictedLicense.MatchString(r):
		return LicenseRestricted
	case closedLicense.MatchString(r):
		return LicenseClosed
	}
	return LicenseNone
}
