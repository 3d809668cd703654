package controllers_fx

import (
	"go.uber.org/fx"

	"sajangnote/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewPlacesController),
	fx.Provide(controllers.NewCopiesController),
	fx.Provide(controllers.NewPlansController),
	fx.Provide(controllers.NewPaymentController))
