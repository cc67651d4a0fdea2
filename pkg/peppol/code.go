package peppol

import (
	"fmt"
	"regexp"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

// schemeCodes maps ISO 6523 registry scheme identifiers to their canonical
// PEPPOL participant codes.
var schemeCodes = map[string]string{
	"FR:SIRENE": "0002",
	"SE:ORGNR":  "0007",
	"FR:SIRET":  "0009",
	"ISO6523":   "0028",
	"FI:OVT":    "0037",
	"DUNS":      "0060",
	"GLN":       "0088",
	"DK:P":      "0096",
	"IT:FTI":    "0097",
	"NL:KVK":    "0106",
	"IT:SIA":    "0135",
	"IT:SECETI": "0142",
	"AU:ABN":    "0151",
	"DK:DIGST":  "0184",
	"NL:OIN":    "0190",
	"EE:RIK":    "0191",
	"NO:ORG":    "0192",
	"UBLBE":     "0193",
	"SG:UEN":    "0195",
	"IS:KTNR":   "0196",
	"DK:CPR":    "9901",
	"DK:CVR":    "9902",
	"DK:SE":     "9904",
	"DK:VANS":   "9905",
	"IT:VAT":    "9906",
	"IT:CF":     "9907",
	"NO:ORGNR":  "9908",
	"NO:VA":     "9909",
	"HU:VAT":    "9910",
	"EU:VAT":    "9912",
	"EU:REID":   "9913",
	"AT:VAT":    "9914",
	"AT:GOV":    "9915",
	"AT:CID":    "9916",
	"IS:KT":     "9917",
	"IBAN":      "9918",
	"AT:KUR":    "9919",
	"ES:VAT":    "9920",
	"IT:IPA":    "9921",
	"AD:VAT":    "9922",
	"AL:VAT":    "9923",
	"BA:VAT":    "9924",
	"BE:VAT":    "9925",
	"BG:VAT":    "9926",
	"CH:VAT":    "9927",
	"CY:VAT":    "9928",
	"CZ:VAT":    "9929",
	"DE:VAT":    "9930",
	"EE:VAT":    "9931",
	"GB:VAT":    "9932",
	"GR:VAT":    "9933",
	"HR:VAT":    "9934",
	"IE:VAT":    "9935",
	"LI:VAT":    "9936",
	"LT:VAT":    "9937",
	"LU:VAT":    "9938",
	"LV:VAT":    "9939",
	"MC:VAT":    "9940",
	"ME:VAT":    "9941",
	"MK:VAT":    "9942",
	"MT:VAT":    "9943",
	"NL:VAT":    "9944",
	"PL:VAT":    "9945",
	"PT:VAT":    "9946",
	"RO:VAT":    "9947",
	"RS:VAT":    "9948",
	"SI:VAT":    "9949",
	"SK:VAT":    "9950",
	"SM:VAT":    "9951",
	"TR:VAT":    "9952",
	"VA:VAT":    "9953",
	"SE:VAT":    "9955",
	"BE:CBE":    "9956",
	"FR:VAT":    "9957",
	"DE:LID":    "9958",
}

var numericScheme = regexp.MustCompile(`^[0-9]{4}$`)

// ResolveSchemeID maps a participant scheme identifier to its canonical
// PEPPOL code. Scheme identifiers that already are a four-digit numeric code
// pass through unchanged, so documents from participants using PEPPOL BIS v3
// numeric codes directly keep working. Anything else fails with
// [errmsg.KindInvalidScheme].
func ResolveSchemeID(schemeID string) (string, error) {
	if code, ok := schemeCodes[schemeID]; ok {
		return code, nil
	}
	if numericScheme.MatchString(schemeID) {
		return schemeID, nil
	}
	return "", errmsg.New(errmsg.KindInvalidScheme, fmt.Sprintf("invalid scheme ID for participant (%q)", schemeID))
}
