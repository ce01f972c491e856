// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// resolveLanguage picks the first supported tag, e.g. from "zh-TW,zh;q=0.9,en;q=0.8"
func resolveLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch tag {
		case "zh-TW", "zh-Hant", "zh_TW", "zh":
			return "zh_TW"
		case "en", "en-US", "en-GB":
			return "en"
		}
	}
	return i18n.DefaultLang
}
