package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt parses an integer query parameter, falling back to the default
// when the parameter is absent or malformed
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
