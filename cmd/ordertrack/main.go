package main

import (
	"ordertrack/internal/config"
	"ordertrack/internal/db"
	"ordertrack/internal/format"
	"ordertrack/internal/handlers"
	"ordertrack/internal/router"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	formatter := format.NewFormatter(conf.Carriers)

	database, err := db.NewDatabase(conf.DatabaseDSN, formatter)
	if err != nil {
		panic(err)
	}
	handlerSet := handlers.NewHandlerSet(database)

	r := router.NewRouter(conf, handlerSet)

	err = r.ListenAndServe()
	if err != nil {
		panic(err)
	}

}
