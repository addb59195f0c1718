package main

import (
	"tool_inventory/app"
	"tool_inventory/config"
	"tool_inventory/routes"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	routes.RegisterRoutes(application.Router, application)

	addr := ":" + application.Config.Port
	application.Log.Info("listening", zap.String("addr", addr), zap.String("db", application.Config.DBDriver))
	if err := application.Router.Run(addr); err != nil {
		application.Log.Fatal("server stopped", zap.Error(err))
	}
}
