package main

import (
	"github.com/Helvio-Lourenco/projectofinal/internal/app"
	"github.com/Helvio-Lourenco/projectofinal/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
