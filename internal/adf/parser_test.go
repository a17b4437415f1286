package adf

import (
	"errors"
	"strings"
	"testing"
)

const sampleADF = `<?xml version="1.0" encoding="UTF-8"?>
<adf>
  <prospect>
    <customer>
      <contact>
        <name part="first">Jane</name>
        <name part="last">Doe</name>
        <email>Jane.Doe@Example.COM</email>
        <phone>(202) 555-0143</phone>
        <address>
          <street>42 Elm St</street>
          <city>Springfield</city>
          <regioncode>IL</regioncode>
          <postalcode>62701</postalcode>
          <country>US</country>
        </address>
      </contact>
      <comments>Interested in a &lt;b&gt;test drive&lt;/b&gt; this weekend</comments>
    </customer>
    <vehicle>
      <year>2024</year>
      <make>Ford</make>
      <model>F-150</model>
      <trim>Lariat</trim>
      <colors>
        <exterior>Blue</exterior>
        <interior>Black</interior>
      </colors>
      <transmission>Automatic</transmission>
    </vehicle>
    <vendor>
      <vendorname>Smith Ford</vendorname>
    </vendor>
    <provider>
      <name>AutoLeads Inc</name>
    </provider>
  </prospect>
</adf>`

func TestParseFullEnvelope(t *testing.T) {
	lead, err := Parse([]byte(sampleADF))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if lead.FirstName != "Jane" || lead.LastName != "Doe" {
		t.Errorf("name = %q %q, want Jane Doe", lead.FirstName, lead.LastName)
	}
	if lead.Email != "jane.doe@example.com" {
		t.Errorf("email = %q, want lowercased", lead.Email)
	}
	if lead.Phone != "+12025550143" {
		t.Errorf("phone = %q, want E.164", lead.Phone)
	}
	if lead.Address.City != "Springfield" || lead.Address.RegionCode != "IL" {
		t.Errorf("unexpected address: %+v", lead.Address)
	}
	if lead.Vehicle.Make != "Ford" || lead.Vehicle.Model != "F-150" || lead.Vehicle.Year != "2024" {
		t.Errorf("unexpected vehicle: %+v", lead.Vehicle)
	}
	if lead.Vehicle.ExteriorColor != "Blue" || lead.Vehicle.InteriorColor != "Black" {
		t.Errorf("unexpected colors: %+v", lead.Vehicle)
	}
	if lead.VendorName != "Smith Ford" {
		t.Errorf("vendor = %q", lead.VendorName)
	}
	if lead.ProviderName != "AutoLeads Inc" {
		t.Errorf("provider = %q", lead.ProviderName)
	}
	if strings.Contains(lead.Comments, "<") {
		t.Errorf("comments not sanitized: %q", lead.Comments)
	}
	if lead.PreferredContactMethod() != ContactMethodEmail {
		t.Errorf("preferred method = %q, want email", lead.PreferredContactMethod())
	}
}

func TestParseExtractsEnvelopeFromEmailNoise(t *testing.T) {
	body := "From: leads@autoleads.example\r\nSubject: new lead\r\n\r\nPlease see below.\n" +
		sampleADF +
		"\n\n--\nAutoLeads Inc\nThis message is confidential."

	lead, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if lead.FirstName != "Jane" {
		t.Errorf("first name = %q", lead.FirstName)
	}
}

func TestParseCaseInsensitiveRoot(t *testing.T) {
	upper := strings.ReplaceAll(sampleADF, "<adf>", "<ADF>")
	upper = strings.ReplaceAll(upper, "</adf>", "</ADF>")

	if _, err := Parse([]byte(upper)); err != nil {
		t.Fatalf("Parse failed on uppercase root: %v", err)
	}
}

func TestParseNoEnvelope(t *testing.T) {
	_, err := Parse([]byte("just a plain email with no xml at all"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestParseMissingVehicle(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="full">Jane Doe</name><email>jane@example.com</email></contact></customer>
		<vendor><vendorname>Smith Ford</vendorname></vendor>
	</prospect></adf>`

	_, err := Parse([]byte(payload))
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("err = %v, want ErrMissingRequiredFields", err)
	}
}

func TestParseMissingVendor(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="full">Jane Doe</name><email>jane@example.com</email></contact></customer>
		<vehicle><make>Ford</make><model>F-150</model></vehicle>
	</prospect></adf>`

	_, err := Parse([]byte(payload))
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("err = %v, want ErrMissingRequiredFields", err)
	}
}

func TestParseNoContactChannel(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="full">Jane Doe</name></contact></customer>
		<vehicle><make>Ford</make><model>F-150</model></vehicle>
		<vendor><vendorname>Smith Ford</vendorname></vendor>
	</prospect></adf>`

	_, err := Parse([]byte(payload))
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("err = %v, want ErrMissingRequiredFields", err)
	}
}

func TestParseFullNameSplit(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="full">Mary Jane Watson</name><email>mj@example.com</email></contact></customer>
		<vehicle><make>Honda</make><model>Civic</model></vehicle>
		<vendor><name>Downtown Honda</name></vendor>
	</prospect></adf>`

	lead, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if lead.FirstName != "Mary Jane" || lead.LastName != "Watson" {
		t.Errorf("name = %q %q, want split on last space", lead.FirstName, lead.LastName)
	}
	if lead.VendorName != "Downtown Honda" {
		t.Errorf("vendor = %q, want fallback to <name>", lead.VendorName)
	}
	if lead.PreferredContactMethod() != ContactMethodEmail {
		t.Errorf("preferred method = %q", lead.PreferredContactMethod())
	}
}

func TestParsePhoneOnlyLead(t *testing.T) {
	payload := `<adf><prospect>
		<customer><contact><name part="first">Bob</name><phone>202-555-0188</phone></contact></customer>
		<vehicle><make>Toyota</make><model>Camry</model></vehicle>
		<vendor><vendorname>Valley Toyota</vendorname></vendor>
	</prospect></adf>`

	lead, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if lead.Phone != "+12025550188" {
		t.Errorf("phone = %q, want E.164", lead.Phone)
	}
	if lead.PreferredContactMethod() != ContactMethodPhone {
		t.Errorf("preferred method = %q, want phone", lead.PreferredContactMethod())
	}
}
