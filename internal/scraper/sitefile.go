package scraper

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sjsage522/listingworker/internal/models"
)

type siteFile struct {
	Sites []siteDefinition `yaml:"sites"`
}

type siteDefinition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	StartURL    string            `yaml:"start_url"`
	BaseURL     string            `yaml:"base_url"`
	Output      string            `yaml:"output"`
	Render      bool              `yaml:"render"`
	Listing     string            `yaml:"listing"`
	NextPage    string            `yaml:"next_page"`
	Ready       string            `yaml:"ready"`
	ClassFilter string            `yaml:"class_filter"`
	Key         []string          `yaml:"key"`
	Placeholder string            `yaml:"placeholder"`
	Target      int               `yaml:"target"`
	MaxPages    int               `yaml:"max_pages"`
	DelayMin    float64           `yaml:"delay_min_seconds"`
	DelayMax    float64           `yaml:"delay_max_seconds"`
	Complete    bool              `yaml:"require_complete"`
	Fields      []fieldDefinition `yaml:"fields"`
}

type fieldDefinition struct {
	Column     string   `yaml:"column"`
	Selector   string   `yaml:"selector"`
	Attr       string   `yaml:"attr"`
	Regex      string   `yaml:"regex"`
	Remove     []string `yaml:"remove"`
	Required   bool     `yaml:"required"`
	Default    string   `yaml:"default"`
	ResolveURL bool     `yaml:"resolve_url"`
}

// LoadSiteFile reads paginated site definitions from a YAML file
func LoadSiteFile(path string) ([]*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site file: %w", err)
	}
	return ParseSiteFile(data)
}

// ParseSiteFile decodes YAML site definitions
func ParseSiteFile(data []byte) ([]*SiteConfig, error) {
	var file siteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse site file: %w", err)
	}

	sites := make([]*SiteConfig, 0, len(file.Sites))
	seen := make(map[string]bool)
	for i, def := range file.Sites {
		site, err := def.toSite()
		if err != nil {
			return nil, fmt.Errorf("site %d (%s): %w", i, def.Name, err)
		}
		if seen[site.Name] {
			return nil, fmt.Errorf("site %q declared twice", site.Name)
		}
		seen[site.Name] = true
		sites = append(sites, site)
	}
	return sites, nil
}

func (d siteDefinition) toSite() (*SiteConfig, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if d.StartURL == "" {
		return nil, fmt.Errorf("start_url is required")
	}
	if d.Listing == "" {
		return nil, fmt.Errorf("listing selector is required")
	}
	if len(d.Fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}

	schema := models.Schema{KeyColumns: d.Key}
	fields := make([]FieldSpec, 0, len(d.Fields))
	for _, f := range d.Fields {
		schema.Columns = append(schema.Columns, f.Column)
		fields = append(fields, FieldSpec{
			Column:     f.Column,
			Selector:   f.Selector,
			Attr:       f.Attr,
			Regex:      f.Regex,
			Remove:     f.Remove,
			Required:   f.Required,
			Default:    f.Default,
			ResolveURL: f.ResolveURL,
		})
	}
	if len(schema.KeyColumns) == 0 {
		schema.KeyColumns = schema.Columns
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	site := &SiteConfig{
		Name:        d.Name,
		Description: d.Description,
		StartURL:    d.StartURL,
		BaseURL:     d.BaseURL,
		Output:      d.Output,
		Mode:        ModePaginate,
		Render:      d.Render,
		Schema:      schema,
		Selectors: Selectors{
			Listing:     d.Listing,
			NextPage:    d.NextPage,
			Ready:       d.Ready,
			ClassFilter: d.ClassFilter,
		},
		Fields:      fields,
		Placeholder: d.Placeholder,
		Target:      d.Target,
		MaxPages:    d.MaxPages,
		DelayMin:    seconds(d.DelayMin),
		DelayMax:    seconds(d.DelayMax),
	}
	if site.BaseURL == "" {
		site.BaseURL = d.StartURL
	}
	if d.Complete {
		placeholder := site.Placeholder
		if placeholder == "" {
			placeholder = DefaultPlaceholder
		}
		site.Accept = func(r models.Record) bool {
			for _, v := range r {
				if v == "" || v == placeholder {
					return false
				}
			}
			return true
		}
	}

	// a bad regex fails here rather than at run time
	if _, err := NewExtractor(site); err != nil {
		return nil, err
	}
	return site, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
