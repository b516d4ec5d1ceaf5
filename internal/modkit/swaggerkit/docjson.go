//go:build swag

package swaggerkit

// swag init --instanceName api writes services/api/docs, which registers itself on import
import _ "newslens/internal/services/api/docs"
