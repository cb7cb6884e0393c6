package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/app"
	"github.com/fsdevblog/shortlinks/internal/bmeta"
	"github.com/fsdevblog/shortlinks/internal/config"
)

// Заполняются при сборке через -ldflags "-X main.buildVersion=...".
//
//nolint:gochecknoglobals
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	bmeta.Print(buildVersion, buildDate, buildCommit)

	appConf := config.MustLoadConfig()

	a := app.Must(app.New(*appConf))

	a.Logger.Info("Starting application", zap.Object("config", appConf))
	if err := a.Run(); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Fatal("application stopped with error", zap.Error(err))
	}
}
