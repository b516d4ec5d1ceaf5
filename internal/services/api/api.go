// Package api mounts the automation control surface
package api

import (
	"time"

	"newslens/internal/modkit"
	"newslens/internal/modkit/httpkit"
	"newslens/internal/modkit/module"
	"newslens/internal/modkit/swaggerkit"
	"newslens/internal/platform/logger"
	phttp "newslens/internal/platform/net/http"

	metamod "newslens/internal/services/api/meta/module"
)

type Options struct {
	Deps   modkit.Deps
	Logger *logger.Logger

	// ServiceName is reported by the meta endpoints
	ServiceName string
	// Modules are mounted after meta in the given order
	Modules []module.Module

	// RequestTimeout bounds every request, manual triggers included
	RequestTimeout time.Duration

	EnableSwagger  bool
	EnableProfiler bool
}

// Mount registers every module's ports and routes under /api/v1 plus the docs and profiler
func Mount(r phttp.Router, opt Options) {
	mods := append([]module.Module{metamod.New(opt.Deps, opt.ServiceName)}, opt.Modules...)

	swaggerkit.Mount(r, swaggerkit.Options{Enabled: opt.EnableSwagger, Title: "NewsLens Automation API"})
	if opt.EnableProfiler {
		phttp.MountProfiler(r, "/debug")
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.RequestTimeout), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	if opt.Logger != nil {
		opt.Logger.Info().Int("modules", len(mods)).Bool("swagger", opt.EnableSwagger).Msg("api mounted")
	}
}
