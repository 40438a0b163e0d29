package main

import (
	"github.com/msalarini/store-lamayer/internal/config"
	"github.com/msalarini/store-lamayer/internal/printserver/app"
)

func main() {
	config.MustInit("printserver")
	app.MustNewApp().Run()
}
