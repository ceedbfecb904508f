package comfort

import (
	"database/sql"
	"net/http"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/controller"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/repository"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/service"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, driver string, metrics *observability.Metrics, opts ...service.Option) error {
	comfortRepository, err := repository.NewRepository(db, driver)
	if err != nil {
		return err
	}
	comfortService := service.NewService(comfortRepository, metrics, opts...)
	comfortController := controller.NewComfortController(comfortService)
	comfortController.RegisterRoutes(mux)
	return nil
}
