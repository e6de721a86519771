package dds

import (
	"fmt"
	"net/url"
	"os"
)

// Domains for the supported EODMS deployments
const (
	ProdDomain = "https://www.eodms-sgdot.nrcan-rncan.gc.ca"
)

// API paths
const (
	LoginPath = "/aaa/v1/login"
	ItemPath  = "/dds/v1/item"
)

// DomainForEnvironment returns the API domain for a deployment environment
// tag. Staging honours a DOMAIN environment variable override.
func DomainForEnvironment(environment string) string {
	domain := ProdDomain
	if environment == "staging" {
		if override := os.Getenv("DOMAIN"); override != "" {
			domain = override
		}
	}
	return domain
}

// LoginURL builds the AAA login endpoint URL
func LoginURL(domain string) string {
	return domain + LoginPath
}

// ItemURL builds the item metadata endpoint URL for a catalog entry
func ItemURL(domain, catalog, collection, archiveID string) string {
	return fmt.Sprintf("%s%s/%s/%s/%s",
		domain, ItemPath,
		url.PathEscape(catalog),
		url.PathEscape(collection),
		url.PathEscape(archiveID),
	)
}
