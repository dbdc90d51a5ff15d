package main

import (
	"github.com/BearBump/TrackNotify/internal/app"
	"github.com/BearBump/TrackNotify/internal/services/stocks"
)

func main() {
	app.RunJobMain(stocks.Job, app.DefaultFactories())
}
