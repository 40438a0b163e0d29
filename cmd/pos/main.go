package main

import (
	"github.com/msalarini/store-lamayer/internal/app"
	"github.com/msalarini/store-lamayer/internal/config"
)

func main() {
	config.MustInit("pos")
	app.MustNewApp().Run()
}
