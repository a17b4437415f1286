package adf

import "encoding/xml"

// The adf* types mirror the ADF lead-exchange XML envelope. Every optional
// element is a pointer so absence is distinguishable from an empty value and
// the document decodes once into a fixed shape.

// XMLName carries no expected element name: the envelope regex already
// matched an <adf> root in any casing, and the decoder should accept it.
type adfDocument struct {
	XMLName  xml.Name
	Prospect adfProspect `xml:"prospect"`
}

type adfProspect struct {
	Customer *adfCustomer `xml:"customer"`
	Vehicle  *adfVehicle  `xml:"vehicle"`
	Vendor   *adfVendor   `xml:"vendor"`
	Provider *adfProvider `xml:"provider"`
	Comments string       `xml:"comments"`
}

type adfCustomer struct {
	Contact  *adfContact `xml:"contact"`
	Comments string      `xml:"comments"`
}

type adfContact struct {
	Names   []adfName   `xml:"name"`
	Email   *string     `xml:"email"`
	Phone   *string     `xml:"phone"`
	Address *adfAddress `xml:"address"`
}

type adfName struct {
	Part  string `xml:"part,attr"`
	Value string `xml:",chardata"`
}

type adfAddress struct {
	Street     string `xml:"street"`
	City       string `xml:"city"`
	RegionCode string `xml:"regioncode"`
	PostalCode string `xml:"postalcode"`
	Country    string `xml:"country"`
}

type adfVehicle struct {
	Year         string     `xml:"year"`
	Make         string     `xml:"make"`
	Model        string     `xml:"model"`
	Trim         string     `xml:"trim"`
	Colors       *adfColors `xml:"colors"`
	Transmission string     `xml:"transmission"`
}

type adfColors struct {
	Exterior string `xml:"exterior"`
	Interior string `xml:"interior"`
}

type adfVendor struct {
	Name string `xml:"vendorname"`
	// Some providers put the dealership name in <name> instead of <vendorname>.
	AltName string `xml:"name"`
}

type adfProvider struct {
	Name string `xml:"name"`
}

// Address is a parsed postal address.
type Address struct {
	Street     string
	City       string
	RegionCode string
	PostalCode string
	Country    string
}

// Vehicle holds the vehicle of interest from the lead document.
type Vehicle struct {
	Year          string
	Make          string
	Model         string
	Trim          string
	ExteriorColor string
	InteriorColor string
	Transmission  string
}

// ContactMethod indicates the customer's usable contact channel.
type ContactMethod string

const (
	ContactMethodEmail ContactMethod = "email"
	ContactMethodPhone ContactMethod = "phone"
)

// ParsedLead is the well-typed result of parsing an ADF envelope.
// It is transient: the ingestion pipeline converts it into durable
// Contact and Lead records.
type ParsedLead struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      Address
	Vehicle      Vehicle
	VendorName   string
	ProviderName string
	Comments     string
}

// PreferredContactMethod returns the channel to use when reaching the
// customer: email when present, otherwise phone. Parse guarantees at least
// one channel exists.
func (p *ParsedLead) PreferredContactMethod() ContactMethod {
	if p.Email != "" {
		return ContactMethodEmail
	}
	return ContactMethodPhone
}

// FullName returns the customer's display name.
func (p *ParsedLead) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
