package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
)

// parseEnv overlays Config with values from a dotenv file given by -env.
// Variables already present in the process environment take precedence over
// the file. Without -env only the process environment is consulted.
//
// Recognized variables: ENV, LOG_FORMAT, HTTP_ADDRESS, GRPC_ADDRESS,
// DATABASE_DSN, SECRET_KEY, ACCESS_TOKEN_TTL, LISTING_CACHE_TTL,
// SHUTDOWN_TIMEOUT, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION,
// S3_BASE_ENDPOINT, MAX_IMAGE_SIZE. Durations use time.ParseDuration syntax.
//
// An unreadable file or a malformed value panics, like the other sources.
func parseEnv(config *Config) {
	values := map[string]string{}

	if path := flagx.EnvFileFlags(); path != "" {
		fromFile, err := godotenv.Read(path)
		if err != nil {
			panic(err)
		}
		values = fromFile
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("ENV", &config.Env)
	str("LOG_FORMAT", &config.LogFormat)
	str("HTTP_ADDRESS", &config.EndpointAddrHTTP)
	str("GRPC_ADDRESS", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	dur("LISTING_CACHE_TTL", &config.ListingCacheTTL)
	dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := lookup("MAX_IMAGE_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxImageSize = n
	}
}
