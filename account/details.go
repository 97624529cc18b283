// Package account reads and updates a seller's personal and business details.
package account

import (
	"github.com/jrsteele09/go-seller-dashboard/internal/utils"
)

type PersonalInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type BusinessInfo struct {
	CompanyName        string `json:"company_name"`
	RegistrationNumber string `json:"registration_number"`
	BusinessAddress    string `json:"business_address"`
	StateProvince      string `json:"state_province"`
	City               string `json:"city"`
	ZipCode            string `json:"zip_code"`
	Country            string `json:"country"`
}

// Details is the account view assembled by the business API.
type Details struct {
	Personal  PersonalInfo `json:"personal"`
	Business  BusinessInfo `json:"business"`
	UpdatedAt string       `json:"updated_at,omitempty"`
}

// PersonalUpdate holds the personal fields to change. Email changes go through
// the confirmation flow instead.
type PersonalUpdate struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type BusinessUpdate struct {
	CompanyName        *string `json:"company_name,omitempty"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	BusinessAddress    *string `json:"business_address,omitempty"`
	StateProvince      *string `json:"state_province,omitempty"`
	City               *string `json:"city,omitempty"`
	ZipCode            *string `json:"zip_code,omitempty"`
	Country            *string `json:"country,omitempty"`
}

// Update is a partial update: only non-nil fields are sent and written.
type Update struct {
	Personal *PersonalUpdate `json:"personal,omitempty"`
	Business *BusinessUpdate `json:"business,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Personal.isEmpty() && u.Business.isEmpty()
}

// normalized drops empty sections so they are not sent.
func (u Update) normalized() Update {
	if u.Personal.isEmpty() {
		u.Personal = nil
	}
	if u.Business.isEmpty() {
		u.Business = nil
	}
	return u
}

func (p *PersonalUpdate) isEmpty() bool {
	return p == nil || (p.Name == nil && p.Phone == nil)
}

func (b *BusinessUpdate) isEmpty() bool {
	return b == nil || (b.CompanyName == nil && b.RegistrationNumber == nil && b.BusinessAddress == nil &&
		b.StateProvince == nil && b.City == nil && b.ZipCode == nil && b.Country == nil)
}

// Diff returns the update that turns d into edited, containing only changed fields.
func (d Details) Diff(edited Details) Update {
	changed := utils.IfChanged[string]
	return Update{
		Personal: &PersonalUpdate{
			Name:  changed(d.Personal.Name, edited.Personal.Name),
			Phone: changed(d.Personal.Phone, edited.Personal.Phone),
		},
		Business: &BusinessUpdate{
			CompanyName:        changed(d.Business.CompanyName, edited.Business.CompanyName),
			RegistrationNumber: changed(d.Business.RegistrationNumber, edited.Business.RegistrationNumber),
			BusinessAddress:    changed(d.Business.BusinessAddress, edited.Business.BusinessAddress),
			StateProvince:      changed(d.Business.StateProvince, edited.Business.StateProvince),
			City:               changed(d.Business.City, edited.Business.City),
			ZipCode:            changed(d.Business.ZipCode, edited.Business.ZipCode),
			Country:            changed(d.Business.Country, edited.Business.Country),
		},
	}.normalized()
}

// Apply returns d with the fields of u written over it.
func (d Details) Apply(u Update) Details {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = utils.Value(src)
		}
	}
	if p := u.Personal; p != nil {
		set(&d.Personal.Name, p.Name)
		set(&d.Personal.Phone, p.Phone)
	}
	if b := u.Business; b != nil {
		set(&d.Business.CompanyName, b.CompanyName)
		set(&d.Business.RegistrationNumber, b.RegistrationNumber)
		set(&d.Business.BusinessAddress, b.BusinessAddress)
		set(&d.Business.StateProvince, b.StateProvince)
		set(&d.Business.City, b.City)
		set(&d.Business.ZipCode, b.ZipCode)
		set(&d.Business.Country, b.Country)
	}
	return d
}

// Country is a selectable business country.
type Country struct {
	Code string
	Name string
}

var Countries = []Country{
	{Code: "US", Name: "United States"},
	{Code: "CA", Name: "Canada"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "AU", Name: "Australia"},
	{Code: "JP", Name: "Japan"},
	{Code: "IN", Name: "India"},
	{Code: "BR", Name: "Brazil"},
	{Code: "MX", Name: "Mexico"},
}

func knownCountry(code string) bool {
	for _, c := range Countries {
		if c.Code == code {
			return true
		}
	}
	return false
}
