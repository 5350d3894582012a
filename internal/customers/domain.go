package customers

import "strings"

// FallbackDisplay is the literal used whenever a name, phone, or address is
// absent. Legacy records carry many half-filled profiles, so every consumer
// renders this fallback rather than an empty cell.
const FallbackDisplay = "ไม่ระบุ"

// CustomerType distinguishes individual and corporate profiles.
type CustomerType string

const (
	TypeIndividual CustomerType = "individual"
	TypeCorporate  CustomerType = "corporate"
)

// Profile is the raw customer shape as stored. Contracts reference customers
// either by ID or with an embedded snapshot; both normalize through Display.
type Profile struct {
	ID          int64
	Type        CustomerType
	Prefix      string
	FirstName   string
	LastName    string
	CompanyName string
	Phone       string
	Address     string
}

// Display is the canonical customer view consumed by every debt component.
// It exists so field fallbacks live in exactly one place instead of being
// scattered through the reporting pipeline.
type Display struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ToDisplay normalizes a profile into the canonical display form.
func ToDisplay(p Profile) Display {
	return Display{
		Name:    displayName(p),
		Phone:   orFallback(p.Phone),
		Address: orFallback(p.Address),
	}
}

func displayName(p Profile) string {
	if p.Type == TypeCorporate {
		return orFallback(strings.TrimSpace(p.CompanyName))
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Prefix, p.FirstName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return orFallback(strings.Join(parts, " "))
}

// DisplayFromSnapshot normalizes an embedded customer snapshot, as carried by
// legacy records, into the canonical display form.
func DisplayFromSnapshot(name, phone, address string) Display {
	return Display{
		Name:    orFallback(name),
		Phone:   orFallback(phone),
		Address: orFallback(address),
	}
}

func orFallback(s string) string {
	if strings.TrimSpace(s) == "" {
		return FallbackDisplay
	}
	return s
}
