// Package handlers contains the full set of handler functions and routes
// supported by the viewer.
package handlers

import (
	"net/http"
	"os"

	"github.com/civledger/ledger/business/web/mid"
	"github.com/civledger/ledger/foundation/web"
	"go.uber.org/zap"
)

// UIConfig contains all the mandatory systems required by the viewer.
type UIConfig struct {
	Shutdown  chan os.Signal
	Log       *zap.SugaredLogger
	EventsURL string
}

// UIMux constructs an http.Handler with all application routes defined.
func UIMux(cfg UIConfig) (*web.App, error) {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Panics(),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(cfg.EventsURL)
	if err != nil {
		return nil, err
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}
