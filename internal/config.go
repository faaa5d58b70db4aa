package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host              string        `env:"HOST"`
	Port              int           `env:"PORT,required=true"`
	APIKey            string        `env:"API_KEY,required=true"`
	RateLimitPerMin   int           `env:"RATE_LIMIT_PER_MINUTE,required=true"`
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT,required=true"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,required=true"`
	DefaultListLimit  int           `env:"DEFAULT_LIST_LIMIT,required=true"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
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
