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
		cfg.Storage.DatabasePath = ".bookwhisperer/books.db"
	}
	if cfg.Calibre.URL == "" {
		cfg.Calibre.URL = "http://localhost:8080"
	}
	if cfg.Calibre.Library == "" {
		cfg.Calibre.Library = "Calibre_Library"
	}
	cfg.Recommend.ApplyDefaults()
}
