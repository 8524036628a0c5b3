package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host      string `env:"HOST,required=true"`
	Port      int    `env:"PORT,required=true"`
	AdminPort int    `env:"ADMIN_PORT,required=true"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
	StaticDir string `env:"STATIC_DIR"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`

	AllowedOrigins          string        `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize          int           `env:"MAX_MESSAGE_SIZE,default=4096"`
	RateLimitBurst          int           `env:"RATE_LIMIT_BURST,default=20"`
	RateLimitRefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=100ms"`
	ConnectionBufferSize    int           `env:"CONNECTION_BUFFER_SIZE,default=256"`

	NotificationBufferSize int           `env:"NOTIFICATION_BUFFER_SIZE,default=1024"`
	NumberOfNotifiers      int           `env:"NUMBER_OF_NOTIFIERS,default=4"`
	NotificationTimeout    time.Duration `env:"NOTIFICATION_TIMEOUT,default=5s"`
	RestartInterval        time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval         time.Duration `env:"METRIC_INTERVAL,default=30s"`

	FirebaseServiceAccountJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`

	// CensoredWords is a comma separated list; DictionaryDir points to a
	// directory of one-word-per-line .txt files. Both feed the moderator.
	CensoredWords   string `env:"CENSORED_WORDS"`
	DictionaryDir   string `env:"DICTIONARY_DIR"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
	LimitMessages   int    `env:"LIMIT_MESSAGES,default=50"`
}

func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) Words() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
