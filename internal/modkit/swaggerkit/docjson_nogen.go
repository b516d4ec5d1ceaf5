//go:build !swag

package swaggerkit

import "github.com/swaggo/swag/v2"

// skeleton stands in for the generated document in builds without the swag tag
var skeleton = &swag.Spec{
	Version:          "0.0.0",
	BasePath:         "/api/v1",
	Title:            "NewsLens Automation API",
	InfoInstanceName: instanceName,
	SwaggerTemplate:  `{"swagger":"2.0","info":{"title":"{{.Title}}","version":"{{.Version}}"},"basePath":"{{.BasePath}}","paths":{}}`,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() { swag.Register(skeleton.InstanceName(), skeleton) }
