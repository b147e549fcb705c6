package dna

// ProjectDNA is the per-project document describing stack, architecture,
// conventions and design system. Generated code is conditioned on it.
type ProjectDNA struct {
	ProjectID       string          `json:"projectId"`
	TechStack       TechStack       `json:"techStack"`
	Architecture    Architecture    `json:"architecture"`
	Features        []string        `json:"features"`
	DesignSystem    DesignSystem    `json:"designSystem"`
	CodingStandards CodingStandards `json:"codingStandards"`
	Dependencies    Dependencies    `json:"dependencies"`
	Environment     Environment     `json:"environment"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
	Version         string          `json:"version"`
}

type TechStack struct {
	Frontend struct {
		Framework string `json:"framework"`
		Language  string `json:"language"`
		Styling   string `json:"styling"`
		UILibrary string `json:"uiLibrary,omitempty"`
	} `json:"frontend"`
	Backend struct {
		Runtime   string `json:"runtime"`
		Framework string `json:"framework"`
		Language  string `json:"language"`
	} `json:"backend"`
	Database struct {
		Primary string `json:"primary"`
		ORM     string `json:"orm,omitempty"`
		Cache   string `json:"cache,omitempty"`
	} `json:"database"`
}

type NamingConventions struct {
	Files      string `json:"files"`
	Variables  string `json:"variables"`
	Components string `json:"components"`
	Constants  string `json:"constants"`
}

type Architecture struct {
	Structure         string            `json:"structure"`
	Pattern           string            `json:"pattern"`
	NamingConventions NamingConventions `json:"namingConventions"`
	FolderStructure   []string          `json:"folderStructure"`
}

type DesignSystem struct {
	Colors     map[string]string `json:"colors"`
	Typography struct {
		FontFamily  string            `json:"fontFamily"`
		HeadingFont string            `json:"headingFont,omitempty"`
		FontSize    map[string]string `json:"fontSize"`
	} `json:"typography"`
	Spacing      string `json:"spacing"`
	BorderRadius string `json:"borderRadius"`
}

type CodeStyle struct {
	MaxLineLength int    `json:"maxLineLength"`
	Semicolons    bool   `json:"semicolons"`
	Quotes        string `json:"quotes"`
	TrailingComma string `json:"trailingComma"`
	TabWidth      int    `json:"tabWidth"`
	UseTabs       bool   `json:"useTabs"`
}

type CodingStandards struct {
	Linter      string    `json:"linter"`
	Formatter   string    `json:"formatter"`
	Testing     string    `json:"testing"`
	CommitStyle string    `json:"commitStyle"`
	CodeStyle   CodeStyle `json:"codeStyle"`
}

type Dependencies struct {
	Production  map[string]string `json:"production"`
	Development map[string]string `json:"development"`
}

type Environment struct {
	NodeVersion    string `json:"nodeVersion"`
	PackageManager string `json:"packageManager"`
}

// SetupForm is what a user fills in to create a project.
type SetupForm struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Framework   string   `json:"framework"`
	Styling     string   `json:"styling"`
	Database    string   `json:"database,omitempty"`
	Features    []string `json:"features"`
	Template    string   `json:"template,omitempty"`
}
