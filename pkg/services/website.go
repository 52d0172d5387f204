package services

import (
	"encoding/xml"
	"strings"

	"headless-cms/pkg/models"

	"github.com/morikuni/failure"
)

type websiteRecord struct {
	XMLName  xml.Name `xml:"item"`
	SiteName string   `xml:"SITENAME"`
	SiteURL  string   `xml:"SITEURL"`
	Template string   `xml:"TEMPLATE"`
}

// Website reads the CMS site settings file. SiteURL, when set, replaces the
// URL stored in the file.
type Website struct {
	Path    string
	SiteURL string
}

func NewWebsite(path, siteURL string) *Website {
	return &Website{Path: path, SiteURL: siteURL}
}

// Settings returns the site settings. A missing file yields empty values so
// the page endpoints keep working on a bare data directory.
func (w *Website) Settings() (*models.SiteSettings, error) {
	var rec websiteRecord
	if err := readXML(w.Path, &rec); err != nil && !failure.Is(err, ErrNotFound) {
		return nil, err
	}
	settings := &models.SiteSettings{
		SiteName: decodeField(rec.SiteName),
		SiteURL:  strings.TrimSpace(rec.SiteURL),
		Template: strings.TrimSpace(rec.Template),
	}
	if w.SiteURL != "" {
		settings.SiteURL = w.SiteURL
	}
	settings.SiteURL = withTrailingSlash(settings.SiteURL)
	return settings, nil
}

func withTrailingSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
