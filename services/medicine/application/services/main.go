package services

import (
	"github.com/ghuser/medshelf/pkg/app"
	"github.com/ghuser/medshelf/pkg/cache"
	"github.com/ghuser/medshelf/services/medicine/infrastructure/persistence/sqlstore"
)

// Services is the application-layer service container for the medicine
// bounded context.
type Services struct {
	Medicine *MedicineService
}

// New wires the medicine services to the infrastructure in a. Optional
// dependencies stay as untyped nils so the service can test for them.
func New(a *app.Application) *Services {
	var bus sqlstore.EventPublisher
	if a.EventBus != nil {
		bus = a.EventBus
	}
	repo := sqlstore.NewMedicineRepository(a.Db, bus, a.Logger)

	var medCache MedicineCache
	if a.Redis != nil {
		medCache = cache.NewMedicineCache(a.Redis)
	}

	return &Services{
		Medicine: NewMedicineService(repo, medCache, a.Logger, a.Meter),
	}
}
