package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL normalizes the gateway base URL: a bare host gets an https
// scheme and any path is stripped, since all endpoint paths are joined onto
// the root.
func ValidateURL(urlString string) (string, error) {
	if strings.TrimSpace(urlString) == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(urlString)
	if err != nil {
		return "", err
	}

	if u.Scheme == "" {
		u.Scheme = "https"
		u, err = url.Parse(u.String())
		if err != nil {
			return "", err
		}
	}

	u.Path = ""

	return u.String(), nil
}
