package types

import "time"

// Arguments is a struct to hold all the settings from the CLI
type Arguments struct {
	Path string `json:"path"`

	APIURL   string        `json:"api"`
	APIToken string        `json:"api-token"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	EnvFile  string        `json:"env-file"`
	Timeout  time.Duration `json:"timeout"`

	DeleteMissing    bool   `json:"delete-missing"`
	NoUpdateExisting bool   `json:"no-update-existing"`
	NoCreateMissing  bool   `json:"no-create-missing"`
	RulesFile        string `json:"rules-file"`
	DisplayRules     bool   `json:"display-rules"`

	DryRun     bool `json:"dry-run"`
	DisableSSL bool `json:"disable-ssl"`
	Recursive  bool `json:"recursive"`

	Version bool `json:"version"`
	Verbose bool `json:"verbose"`
}

// NewArguments returns Arguments with the CLI defaults applied.
func NewArguments() *Arguments {
	return &Arguments{EnvFile: ".env"}
}

// Redacted returns a copy that is safe to log.
func (a Arguments) Redacted() Arguments {
	if a.APIToken != "" {
		a.APIToken = "********"
	}
	if a.Password != "" {
		a.Password = "********"
	}
	return a
}
