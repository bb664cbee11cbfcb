package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/tenderlens/data/reports.db"
	}
	if cfg.Inbox.Provider == "" {
		cfg.Inbox.Provider = InboxGmail
	}
	if cfg.Inbox.MaxResults == 0 {
		cfg.Inbox.MaxResults = 50
	}
	if cfg.Inbox.Query == "" {
		cfg.Inbox.Query = "in:inbox -in:sent"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "llama3.1"
		}
	}
	if cfg.Extract.OCRLanguage == "" {
		cfg.Extract.OCRLanguage = "eng"
	}
	if cfg.Extract.MinDigitalChars == 0 {
		cfg.Extract.MinDigitalChars = 100
	}
	if cfg.Extract.RenderDPI == 0 {
		cfg.Extract.RenderDPI = 200
	}
	if cfg.Extract.PdftoppmPath == "" {
		cfg.Extract.PdftoppmPath = "pdftoppm"
	}
	if cfg.Watch.Enabled() && cfg.Watch.OutputDirectory == "" {
		cfg.Watch.OutputDirectory = cfg.Watch.Directory
	}
}
