package handler

import (
	"zerochat/internal/app/identity"
	"zerochat/internal/app/relay"
	"zerochat/internal/configs"
)

// AppDeps bundles the collaborators the HTTP handlers need. Everything is
// constructed once at process start and passed in explicitly.
type AppDeps struct {
	Router    *relay.Router
	Registry  *relay.SessionRegistry
	Directory identity.Directory
	Config    *configs.AppConfig
}
