package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	environ := env.EnvSet{
		"HOST":            "localhost",
		"PORT":            "3000",
		"ADMIN_PORT":      "3001",
		"BADGER_FILEPATH": "/tmp/relay",
		"JWT_SECRET":      "secret",
		"ALLOWED_ORIGINS": "http://a.test, http://b.test,",
		"CENSORED_WORDS":  "darn, heck",
	}

	var config Config
	err := env.Unmarshal(environ, &config)

	req.NoError(err)
	req.Equal(3000, config.Port)
	req.Equal(168*time.Hour, config.AuthTokenDuration)
	req.Equal(4096, config.MaxMessageSize)
	req.Equal(256, config.ConnectionBufferSize)
	req.Equal([]string{"http://a.test", "http://b.test"}, config.Origins())
	req.Equal([]string{"darn", "heck"}, config.Words())
}

func TestConfig_Missing_Required(t *testing.T) {
	req := require.New(t)

	var config Config
	err := env.Unmarshal(env.EnvSet{"HOST": "localhost"}, &config)

	req.Error(err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("ab")
	req.Error(err)
}
