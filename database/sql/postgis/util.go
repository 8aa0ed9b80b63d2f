package postgis

import (
	"os"
	"strings"
)

// disableDefaultSslOnLocalhost adds sslmode=disable to params
// when host is localhost/127.0.0.1 and the sslmode param and
// PGSSLMODE environment are both not set.
func disableDefaultSslOnLocalhost(params string) string {
	parts := strings.Fields(params)
	isLocalHost := false
	for _, p := range parts {
		if strings.HasPrefix(p, "sslmode=") {
			return params
		}
		if p == "host=localhost" || p == "host=127.0.0.1" {
			isLocalHost = true
		}
	}

	if !isLocalHost {
		return params
	}

	if _, ok := os.LookupEnv("PGSSLMODE"); ok {
		return params
	}

	return params + " sslmode=disable"
}

// stripParam removes name=value from the key/value connection params of
// pq.ParseURL. The params are not passed to PostgreSQL, which would reject
// unknown settings.
func stripParam(params, name string) (string, string) {
	parts := strings.Fields(params)
	var value string
	rest := parts[:0]
	for _, p := range parts {
		if strings.HasPrefix(p, name+"=") {
			value = strings.Trim(p[len(name)+1:], "'")
			continue
		}
		rest = append(rest, p)
	}
	return strings.Join(rest, " "), value
}
