package payment_fx

import (
	"os"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sajangnote/internal/repositories"
	"sajangnote/internal/services"
)

var Module = fx.Provide(
	providePaymentService)

func providePaymentService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	placeRepo repositories.PlaceRepository,
	planRepo repositories.PlanRepository,
) services.PaymentService {
	cfg := services.PayOSConfig{
		ClientID:     os.Getenv("PAYOS_CLIENT_ID"),
		ApiKey:       os.Getenv("PAYOS_API_KEY"),
		ChecksumKey:  os.Getenv("PAYOS_CHECKSUM_KEY"),
		ReturnURL:    os.Getenv("PAYOS_RETURN_URL"),
		CancelURL:    os.Getenv("PAYOS_CANCEL_URL"),
		ProviderName: "payos",
	}

	instance, err := services.NewPaymentService(db, accountRepo, placeRepo, planRepo, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize payment service")
	}
	return instance
}
