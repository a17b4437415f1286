// Package adf parses the ADF lead-exchange XML envelope embedded in inbound
// lead emails into a well-typed ParsedLead. Parsing is a pure transform with
// no side effects.
package adf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dealerportal_backend/platform/phone"
	"dealerportal_backend/platform/sanitize"
)

var (
	// ErrMalformedInput indicates the payload contains no parsable <adf> envelope.
	ErrMalformedInput = errors.New("malformed input: no adf envelope found")
	// ErrMissingRequiredFields indicates the envelope lacks customer contact,
	// vehicle, vendor, or any usable contact channel.
	ErrMissingRequiredFields = errors.New("missing required fields")
)

// envelopeRegex matches the first <adf>...</adf> envelope, case-insensitively,
// anywhere in the raw message body (headers, MIME noise and signatures are
// ignored).
var envelopeRegex = regexp.MustCompile(`(?is)<adf[\s>].*?</adf\s*>`)

// Parse extracts and decodes the first ADF envelope from raw inbound bytes.
func Parse(raw []byte) (*ParsedLead, error) {
	envelope := envelopeRegex.Find(raw)
	if len(envelope) == 0 {
		return nil, ErrMalformedInput
	}

	var doc adfDocument
	decoder := xml.NewDecoder(strings.NewReader(string(envelope)))
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	prospect := doc.Prospect
	if prospect.Customer == nil || prospect.Customer.Contact == nil {
		return nil, fmt.Errorf("%w: customer.contact", ErrMissingRequiredFields)
	}
	if prospect.Vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle", ErrMissingRequiredFields)
	}
	if prospect.Vendor == nil {
		return nil, fmt.Errorf("%w: vendor", ErrMissingRequiredFields)
	}

	contact := prospect.Customer.Contact
	lead := &ParsedLead{
		Comments: sanitize.Text(firstNonEmpty(prospect.Comments, prospect.Customer.Comments)),
	}

	for _, name := range contact.Names {
		value := strings.TrimSpace(name.Value)
		switch strings.ToLower(strings.TrimSpace(name.Part)) {
		case "first":
			lead.FirstName = value
		case "last":
			lead.LastName = value
		case "full", "":
			// Some providers send a single full name; split on the last space.
			if lead.FirstName == "" && lead.LastName == "" {
				lead.FirstName, lead.LastName = splitFullName(value)
			}
		}
	}

	if contact.Email != nil {
		lead.Email = strings.ToLower(strings.TrimSpace(*contact.Email))
	}
	if contact.Phone != nil {
		lead.Phone = phone.NormalizeE164(*contact.Phone)
	}
	if lead.Email == "" && lead.Phone == "" {
		// A lead without any contact channel cannot be worked or deduplicated
		// consistently, so it is rejected rather than stored as "Unknown".
		return nil, fmt.Errorf("%w: email or phone", ErrMissingRequiredFields)
	}

	if contact.Address != nil {
		lead.Address = Address{
			Street:     strings.TrimSpace(contact.Address.Street),
			City:       strings.TrimSpace(contact.Address.City),
			RegionCode: strings.TrimSpace(contact.Address.RegionCode),
			PostalCode: strings.TrimSpace(contact.Address.PostalCode),
			Country:    strings.TrimSpace(contact.Address.Country),
		}
	}

	vehicle := prospect.Vehicle
	lead.Vehicle = Vehicle{
		Year:         strings.TrimSpace(vehicle.Year),
		Make:         strings.TrimSpace(vehicle.Make),
		Model:        strings.TrimSpace(vehicle.Model),
		Trim:         strings.TrimSpace(vehicle.Trim),
		Transmission: strings.TrimSpace(vehicle.Transmission),
	}
	if vehicle.Colors != nil {
		lead.Vehicle.ExteriorColor = strings.TrimSpace(vehicle.Colors.Exterior)
		lead.Vehicle.InteriorColor = strings.TrimSpace(vehicle.Colors.Interior)
	}

	lead.VendorName = strings.TrimSpace(firstNonEmpty(prospect.Vendor.Name, prospect.Vendor.AltName))
	if prospect.Provider != nil {
		lead.ProviderName = strings.TrimSpace(prospect.Provider.Name)
	}

	return lead, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	idx := strings.LastIndex(full, " ")
	if idx < 0 {
		return full, ""
	}
	return strings.TrimSpace(full[:idx]), strings.TrimSpace(full[idx+1:])
}
