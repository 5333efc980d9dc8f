package main

import (
	"github.com/CampusPerks/points_service/config"
	"github.com/CampusPerks/points_service/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
