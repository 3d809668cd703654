package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"sajangnote/cmd/fx/account_fx"
	"sajangnote/cmd/fx/analysis_fx"
	"sajangnote/cmd/fx/controllers_fx"
	"sajangnote/cmd/fx/copy_fx"
	"sajangnote/cmd/fx/crawl_fx"
	"sajangnote/cmd/fx/db_fx"
	"sajangnote/cmd/fx/payment_fx"
	"sajangnote/cmd/fx/place_fx"
	"sajangnote/cmd/fx/plan_fx"
	"sajangnote/internal/api/controllers"
	"sajangnote/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	app := fx.New(
		db_fx.Module,
		crawl_fx.Module,
		analysis_fx.Module,
		account_fx.Module,
		place_fx.Module,
		copy_fx.Module,
		plan_fx.Module,
		payment_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			go func() {
				log.Info().Str("port", port).Msg("starting HTTP server")
				if err := engine.Run(":" + port); err != nil {
					log.Fatal().Err(err).Msg("server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	placesController *controllers.PlacesController,
	copiesController *controllers.CopiesController,
	plansController *controllers.PlansController,
	paymentController *controllers.PaymentController) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, accountController, placesController, copiesController, plansController, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	placesController *controllers.PlacesController,
	copiesController *controllers.CopiesController,
	plansController *controllers.PlansController,
	paymentController *controllers.PaymentController) {

	accounts := r.Group("/accounts")
	accounts.POST("/register", accountController.Register)
	accounts.POST("/login", accountController.Login)
	accounts.GET("/me", middleware.JWTAuthMiddleware(), accountController.Me)

	r.GET("/plans", plansController.ListPlans)

	// payOS calls the webhook directly; it authenticates with its checksum,
	// not a bearer token.
	r.POST("/payments/webhook", paymentController.HandleWebhook)

	auth := r.Group("/", middleware.JWTAuthMiddleware())

	auth.POST("/places/register-or-get", placesController.RegisterOrGet)
	auth.GET("/places/:placeId", placesController.GetPlace)
	auth.DELETE("/places/:placeId", placesController.Delete)
	auth.GET("/places/:placeId/copies", copiesController.ListForPlace)

	auth.GET("/my-places", placesController.ListMyPlaces)
	auth.POST("/my-places/change", placesController.PrepareChange)
	auth.POST("/my-places/complete-change", placesController.CompleteChange)
	auth.POST("/refresh-place", placesController.Refresh)

	auth.POST("/copies/generate", copiesController.Generate)
	auth.DELETE("/copies/:copyId", copiesController.Delete)

	auth.POST("/payments/create-checkout", paymentController.CreateCheckoutRequest)
}
