package cli

import "github.com/Plantigo/plantigo-backend/config"

type Handler struct {
	Migration *MigrateHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
	}
}
