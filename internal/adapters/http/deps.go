package http

import (
	"github.com/nats-io/nats.go"

	"github.com/transtime/routeplanner/internal/adapters/valkey"
	"github.com/transtime/routeplanner/internal/core/usecases"
	"github.com/transtime/routeplanner/internal/offline"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Session      *usecases.Session
	Orchestrator *usecases.Orchestrator
	Layers       *usecases.LayerManager
	Share        *usecases.ShareService
	Saved        *usecases.SavedRoutesService
	Prefs        *usecases.PreferencesService
	Offline      *offline.Worker
	NATS         *nats.Conn
	Store        *valkey.Store
	PublicURL    string
}
