package identity

import "time"

// Config holds the deployment-injected settings of the identity core. The
// signing secret and every window are configuration, never package defaults
// baked into the issuing or reset code paths.
type Config struct {
	SigningKey    string        `env:"JWT_SECRET,required"`
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CookieName    string        `env:"AUTH_COOKIE_NAME" envDefault:"jwt"`
	CookieSecure  bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	ResetTokenTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"10m"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	// HashPoolSize bounds concurrent argon2id operations; zero means derive
	// from GOMAXPROCS.
	HashPoolSize int `env:"HASH_POOL_SIZE" envDefault:"0"`
}
