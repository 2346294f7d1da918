package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderFactoryID carries the factory scope for every export request
	HeaderFactoryID = "X-WMS-Factory-ID"

	// ContextKeyFactoryID is the gin context key holding the resolved factory ID
	ContextKeyFactoryID = "factoryId"
)

// FactoryScopeConfig holds configuration for factory scope middleware
type FactoryScopeConfig struct {
	// Required when true, requests without a factory header are rejected
	Required bool

	// DefaultFactoryID is used when no factory header is provided and Required is false
	DefaultFactoryID string
}

// DefaultFactoryScopeConfig returns a configuration suitable for single-factory deployments
func DefaultFactoryScopeConfig() *FactoryScopeConfig {
	return &FactoryScopeConfig{
		Required:         false,
		DefaultFactoryID: "default",
	}
}

// FactoryScope extracts the factory ID from the request headers and stores it
// in the gin context. Every allocation, reservation and reversal operation is
// scoped to exactly one factory, so downstream handlers pass the resolved ID
// explicitly into the application layer.
func FactoryScope(config *FactoryScopeConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultFactoryScopeConfig()
	}

	return func(c *gin.Context) {
		factoryID := c.GetHeader(HeaderFactoryID)

		if factoryID == "" {
			if config.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    "MISSING_FACTORY_SCOPE",
					"message": "Factory context is required",
				})
				return
			}
			factoryID = config.DefaultFactoryID
		}

		c.Set(ContextKeyFactoryID, factoryID)
		c.Next()
	}
}

// GetFactoryID returns the factory ID resolved by the FactoryScope middleware
func GetFactoryID(c *gin.Context) string {
	return c.GetString(ContextKeyFactoryID)
}
