// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// I18nMiddleware picks the response language from Accept-Language, using
// defaultLocale when the header is absent.
func I18nMiddleware(defaultLocale string) gin.HandlerFunc {
	fallback := i18n.Normalize(defaultLocale)

	return func(c *gin.Context) {
		lang := fallback
		if header := c.GetHeader("Accept-Language"); header != "" {
			lang = i18n.Normalize(header)
		}

		c.Set(utils.ContextKeyLang, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}
