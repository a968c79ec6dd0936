package utils

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", userID, path)
}

// LogEvent logs an event with structured data
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).Info(eventType)
}

// IsBlank reports whether s is empty or whitespace only. A blank team password
// leaves the team public.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
