package utils

import (
	"os"
	"os/user"
)

// GetUsername returns the current OS user, preferring $WFB_USER when set.
func GetUsername() (string, error) {
	if name := os.Getenv("WFB_USER"); name != "" {
		return name, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// GetHostname returns the machine's hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}
