// Package handler exposes the linker over HTTP with gin.
package handler

import (
	"github.com/gin-gonic/gin"

	"trade-journal-linker/pkg/logger"
)

// Registrar is implemented by every handler group
type Registrar interface {
	Register(r *gin.Engine)
}

// NewRouter builds the engine with recovery and request logging installed
func NewRouter(log logger.Logger, handlers ...Registrar) *gin.Engine {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log))
	for _, h := range handlers {
		h.Register(engine)
	}
	return engine
}
