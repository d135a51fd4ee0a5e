package scraper

import (
	"fmt"
	"path/filepath"
	"sort"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/logger"
)

// SiteConstructor builds a site from the configuration
type SiteConstructor func(cfg *config.Config) *SiteConfig

// builtinSites are the sites compiled into the worker
var builtinSites = map[string]SiteConstructor{
	"ebay":           NewEbaySite,
	"zomato":         NewZomatoSite,
	"zomato-details": NewZomatoDetailSite,
	"timesjobs":      NewTimesJobsSite,
}

// CreateSites returns every known site sorted by name: the built-in ones
// plus those declared in the configured site file
func CreateSites(cfg *config.Config) ([]*SiteConfig, error) {
	sites := make([]*SiteConfig, 0, len(builtinSites))
	for _, build := range builtinSites {
		sites = append(sites, finalizeSite(cfg, build(cfg)))
	}

	if cfg.SitesFile != "" {
		extra, err := LoadSiteFile(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		for _, site := range extra {
			if _, exists := builtinSites[site.Name]; exists {
				return nil, fmt.Errorf("site file %s: %q shadows a built-in site", cfg.SitesFile, site.Name)
			}
			sites = append(sites, finalizeSite(cfg, site))
		}
	}

	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })

	for _, s := range sites {
		logger.Debug("Site %s (%s) at %s", s.Name, s.Mode, s.StartURL)
	}
	return sites, nil
}

// LookupSite returns the site called name
func LookupSite(cfg *config.Config, name string) (*SiteConfig, error) {
	sites, err := CreateSites(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range sites {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown site %q", name)
}

// finalizeSite fills the defaults shared by every site
func finalizeSite(cfg *config.Config, site *SiteConfig) *SiteConfig {
	if site.Output == "" {
		site.Output = filepath.Join(cfg.OutputDir, site.Name+".csv")
	}
	if site.Placeholder == "" {
		site.Placeholder = DefaultPlaceholder
	}
	if site.DelayMin == 0 && site.DelayMax == 0 {
		site.DelayMin, site.DelayMax = cfg.DelayMin, cfg.DelayMax
	}
	return site
}
