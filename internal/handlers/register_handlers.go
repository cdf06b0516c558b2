package handlers

import (
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/finledger/finledger_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerHomeRoutes(r)

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.ActingUserMiddleware())

	registerCurrencyRoutes(v1, services.Currency)

	// Everything ledger-related is scoped to one workplace.
	workplace := v1.Group("/workplaces/:workplace_id")
	{
		registerAccountRoutes(workplace, services.Registry)
		registerEntryRoutes(workplace, services.Entry)
		registerSourceRoutes(workplace, services.Binding)
		registerExternalAccountRoutes(workplace, services.Binding)
		registerReconRoutes(workplace, services.Recon)
	}
}
