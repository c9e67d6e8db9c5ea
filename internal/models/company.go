package models

// DefaultBrandColor is used when a company row has no brand color.
const DefaultBrandColor = "#1B3E6F"

// Company is a branded tenant of the dashboard, addressed by its slug.
type Company struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	CompanyName string `json:"company_name"`
	LogoURL     string `json:"logo_url"`
	BrandColor  string `json:"brand_color"`
}

// CompanyData is the aggregate dashboard view for one company.
type CompanyData struct {
	Company    Company            `json:"company"`
	Properties []PropertyWithData `json:"properties"`
}
