package main

import (
	"github.com/BearBump/TrackNotify/internal/app"
	"github.com/BearBump/TrackNotify/internal/services/parcels"
)

func main() {
	app.RunJobMain(parcels.JobDigest, app.DefaultFactories())
}
