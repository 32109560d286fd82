package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
)

// Module is a pluggable feature that attaches its endpoints to a Controller (a gin group).
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets you define a Module with a simple function.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// Controller registers endpoints on a group. The upper-case helpers take
// handlers that need the caller's session; PUBLIC_* ones do not.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth, mw ...gin.HandlerFunc) {
	c.Group.GET(path, append(mw, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth, mw ...gin.HandlerFunc) {
	c.Group.POST(path, append(mw, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth, mw ...gin.HandlerFunc) {
	c.Group.PUT(path, append(mw, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

// GroupConfig tells the api package how to mount a group.
type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string                   // required if Auth == true
	Sessions   middleware.SessionLookup // required if Auth == true
	Middleware []gin.HandlerFunc        // optional additional middleware
}

// MountGroup mounts one or more Modules under a prefix with optional auth.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	var grp *gin.RouterGroup

	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		} else {
			grp = v
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	if cfg.Auth {
		if cfg.SecretKey == "" || cfg.Sessions == nil {
			log.Fatal().Msg("api.MountGroup: Auth enabled but SecretKey or Sessions is missing")
		}
		grp.Use(middleware.JWTMiddleware(cfg.SecretKey, cfg.Sessions))
	}
	// Applied after auth so they can see the session.
	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}

	controller := &Controller{Group: grp}

	for _, m := range modules {
		m.Mount(controller)
	}
}
