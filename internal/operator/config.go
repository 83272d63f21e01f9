package operator

import (
	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/database"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Debug     bool   `envconfig:"TKWIN_DEBUG" default:"false"`
	Port      string `envconfig:"TKWIN_PORT" default:"8080"`
	CacheSize int    `envconfig:"TKWIN_CACHE_SIZE" default:"64"`
	// cron spec, empty disables autosave
	Autosave    string   `envconfig:"TKWIN_AUTOSAVE" default:"@every 1m"`
	CORSOrigins []string `envconfig:"TKWIN_CORS_ORIGINS" default:"*"`
	// joystick device nodes, one per judge
	Joysticks []string `envconfig:"TKWIN_JOYSTICKS"`

	TelegramToken string `envconfig:"TKWIN_TELEGRAM_TOKEN"`
	TelegramChat  int64  `envconfig:"TKWIN_TELEGRAM_CHAT"`

	Rules bout.Rules
	DB    database.Config
}
