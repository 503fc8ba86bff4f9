package provider

import (
	"fmt"
	"strings"
)

// Provider is a single row of the provider directory.
//
// Every field is the raw text delivered by the source sheet. Flag fields carry
// "Y", "N" or anything else, CustomerReviewRating is free text that may start
// with a number. A Provider is never modified once ingested; the search,
// filter and sort pipeline always works on copies of the slice that holds it.
type Provider struct {
	ProviderName             string `json:"Provider Name"`
	SystemNetworkName        string `json:"System / Network Name"`
	WebsiteURL               string `json:"Website URL"`
	OrganizationType         string `json:"Organization Type"`
	Address                  string `json:"Address"`
	PhoneNumber              string `json:"Phone number"`
	AcademicAffiliation      string `json:"Academic Affiliation"`
	ServicesOffered          string `json:"Services offered"`
	Categories               string `json:"Categories"`
	PrimaryAudience          string `json:"Primary Audience"`
	LanguagesOfferedClinical string `json:"Languages Offered (clinical)"`
	InterpretersAvailable    string `json:"Availability of Professional Interpreters (Y/N)"`
	Telehealth               string `json:"Telehealth (Y/N)"`
	FinancialAssistance      string `json:"Financial Assistance (Y/N)"`
	Transportation           string `json:"Transportation (Y/N)"`
	NotesForPatients         string `json:"Notes for Indian / South Asian Patients"`
	CustomerReviewRating     string `json:"Customer review rating"`
}

// Field identifies one of the record's source columns.
type Field string

const (
	FieldProviderName             Field = "provider_name"
	FieldSystemNetworkName        Field = "system_network_name"
	FieldWebsiteURL               Field = "website_url"
	FieldOrganizationType         Field = "organization_type"
	FieldAddress                  Field = "address"
	FieldPhoneNumber              Field = "phone_number"
	FieldAcademicAffiliation      Field = "academic_affiliation"
	FieldServicesOffered          Field = "services_offered"
	FieldCategories               Field = "categories"
	FieldPrimaryAudience          Field = "primary_audience"
	FieldLanguagesOfferedClinical Field = "languages_offered_clinical"
	FieldInterpretersAvailable    Field = "interpreters_available"
	FieldTelehealth               Field = "telehealth"
	FieldFinancialAssistance      Field = "financial_assistance"
	FieldTransportation           Field = "transportation"
	FieldNotesForPatients         Field = "notes_for_patients"
	FieldCustomerReviewRating     Field = "customer_review_rating"
)

// Fields lists every source column in the sheet's canonical order.
var Fields = []Field{
	FieldProviderName,
	FieldSystemNetworkName,
	FieldWebsiteURL,
	FieldOrganizationType,
	FieldAddress,
	FieldPhoneNumber,
	FieldAcademicAffiliation,
	FieldServicesOffered,
	FieldCategories,
	FieldPrimaryAudience,
	FieldLanguagesOfferedClinical,
	FieldInterpretersAvailable,
	FieldTelehealth,
	FieldFinancialAssistance,
	FieldTransportation,
	FieldNotesForPatients,
	FieldCustomerReviewRating,
}

var headers = map[Field]string{
	FieldProviderName:             "Provider Name",
	FieldSystemNetworkName:        "System / Network Name",
	FieldWebsiteURL:               "Website URL",
	FieldOrganizationType:         "Organization Type",
	FieldAddress:                  "Address",
	FieldPhoneNumber:              "Phone number",
	FieldAcademicAffiliation:      "Academic Affiliation",
	FieldServicesOffered:          "Services offered",
	FieldCategories:               "Categories",
	FieldPrimaryAudience:          "Primary Audience",
	FieldLanguagesOfferedClinical: "Languages Offered (clinical)",
	FieldInterpretersAvailable:    "Availability of Professional Interpreters (Y/N)",
	FieldTelehealth:               "Telehealth (Y/N)",
	FieldFinancialAssistance:      "Financial Assistance (Y/N)",
	FieldTransportation:           "Transportation (Y/N)",
	FieldNotesForPatients:         "Notes for Indian / South Asian Patients",
	FieldCustomerReviewRating:     "Customer review rating",
}

var fieldsByHeader = func() map[string]Field {
	m := make(map[string]Field, len(headers))
	for f, h := range headers {
		m[h] = f
	}
	return m
}()

// Header returns the exact column header used by the source sheet.
func (f Field) Header() string {
	return headers[f]
}

// Valid reports whether f names one of the source columns.
func (f Field) Valid() bool {
	_, ok := headers[f]
	return ok
}

// Headers returns the source header row in canonical order.
func Headers() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = f.Header()
	}
	return out
}

// FieldForHeader maps a source header back to its field. Surrounding
// whitespace is ignored since spreadsheet exports occasionally pad headers.
func FieldForHeader(header string) (Field, bool) {
	f, ok := fieldsByHeader[strings.TrimSpace(header)]
	return f, ok
}

// ParseField accepts either a field id ("customer_review_rating") or the
// source header text ("Customer review rating").
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if f := Field(strings.ToLower(s)); f.Valid() {
		return f, nil
	}
	if f, ok := FieldForHeader(s); ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Get returns the raw text of field f. Unknown fields read as empty.
func (p Provider) Get(f Field) string {
	switch f {
	case FieldProviderName:
		return p.ProviderName
	case FieldSystemNetworkName:
		return p.SystemNetworkName
	case FieldWebsiteURL:
		return p.WebsiteURL
	case FieldOrganizationType:
		return p.OrganizationType
	case FieldAddress:
		return p.Address
	case FieldPhoneNumber:
		return p.PhoneNumber
	case FieldAcademicAffiliation:
		return p.AcademicAffiliation
	case FieldServicesOffered:
		return p.ServicesOffered
	case FieldCategories:
		return p.Categories
	case FieldPrimaryAudience:
		return p.PrimaryAudience
	case FieldLanguagesOfferedClinical:
		return p.LanguagesOfferedClinical
	case FieldInterpretersAvailable:
		return p.InterpretersAvailable
	case FieldTelehealth:
		return p.Telehealth
	case FieldFinancialAssistance:
		return p.FinancialAssistance
	case FieldTransportation:
		return p.Transportation
	case FieldNotesForPatients:
		return p.NotesForPatients
	case FieldCustomerReviewRating:
		return p.CustomerReviewRating
	}
	return ""
}

// With returns a copy of p with field f set to value. It is used while a row
// is being assembled by a parser, before the record enters the dataset.
func (p Provider) With(f Field, value string) Provider {
	switch f {
	case FieldProviderName:
		p.ProviderName = value
	case FieldSystemNetworkName:
		p.SystemNetworkName = value
	case FieldWebsiteURL:
		p.WebsiteURL = value
	case FieldOrganizationType:
		p.OrganizationType = value
	case FieldAddress:
		p.Address = value
	case FieldPhoneNumber:
		p.PhoneNumber = value
	case FieldAcademicAffiliation:
		p.AcademicAffiliation = value
	case FieldServicesOffered:
		p.ServicesOffered = value
	case FieldCategories:
		p.Categories = value
	case FieldPrimaryAudience:
		p.PrimaryAudience = value
	case FieldLanguagesOfferedClinical:
		p.LanguagesOfferedClinical = value
	case FieldInterpretersAvailable:
		p.InterpretersAvailable = value
	case FieldTelehealth:
		p.Telehealth = value
	case FieldFinancialAssistance:
		p.FinancialAssistance = value
	case FieldTransportation:
		p.Transportation = value
	case FieldNotesForPatients:
		p.NotesForPatients = value
	case FieldCustomerReviewRating:
		p.CustomerReviewRating = value
	}
	return p
}

// Values returns the record's fields in canonical column order.
func (p Provider) Values() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = p.Get(f)
	}
	return out
}

// FromMap builds a record from a header-keyed row. Missing headers default to
// the empty string; unknown headers are ignored.
func FromMap(row map[string]string) Provider {
	var p Provider
	for h, v := range row {
		if f, ok := FieldForHeader(h); ok {
			p = p.With(f, v)
		}
	}
	return p
}

// IsEmpty reports whether every field is blank.
func (p Provider) IsEmpty() bool {
	for _, f := range Fields {
		if strings.TrimSpace(p.Get(f)) != "" {
			return false
		}
	}
	return true
}

// Summary returns a concise one-line description for compact display.
func (p Provider) Summary() string {
	name := p.ProviderName
	if name == "" {
		name = "(unnamed provider)"
	}
	if p.Address == "" {
		return name
	}
	return name + " · " + p.Address
}
