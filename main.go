package main

import (
	"github.com/Codingstar67/ping-buddy/internals/initializers"
	"github.com/Codingstar67/ping-buddy/internals/routes"
)

func init() {
	initializers.LoadEnvVariables()
	initializers.ConnectToDb()
	initializers.SyncDatabase()
	initializers.ConnectToRedis()
}

func main() {
	r := routes.SetupRouter(initializers.DB, initializers.Redis)

	r.Run()
}
