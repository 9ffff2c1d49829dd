package cfg

type Cfg struct {
	// Archive configuration
	ArchivePath string
	SiteConfig  string

	// Application configuration
	Port           string
	BaseUrl        string
	FullTextSearch string // "auto", "on" or "off"

	// Application metadata
	Timezone string
	Debug    bool
	Version  string

	Public Public
}

// Public is the frontend-facing site configuration, served verbatim at
// /api/config.json. Loaded from an optional YAML file next to the archive.
type Public struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	SourceUrl   string `yaml:"source_url,omitempty" json:"sourceUrl,omitempty"`
}
