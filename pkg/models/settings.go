package models

// APISettings is the persisted plugin configuration. It is the only record
// the service ever writes.
type APISettings struct {
	APIKey      string `json:"api_key"`
	APIEnabled  bool   `json:"api_enabled"`
	RequireAuth bool   `json:"require_auth"`
	CORSEnabled bool   `json:"cors_enabled"`
}

// SettingsUpdate is the admin form. Nil flags are left untouched.
type SettingsUpdate struct {
	APIEnabled    *bool `json:"api_enabled"`
	RequireAuth   *bool `json:"require_auth"`
	CORSEnabled   *bool `json:"cors_enabled"`
	RegenerateKey bool  `json:"regenerate_key"`
}

// SiteSettings is read from the CMS website file.
type SiteSettings struct {
	SiteName string `json:"site_name"`
	SiteURL  string `json:"site_url"`
	Template string `json:"template"`
}
