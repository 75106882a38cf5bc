package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osgbhub/osgbhub-backend/api/controllers"
	buildercontrollers "github.com/osgbhub/osgbhub-backend/api/controllers/builder"
	"github.com/osgbhub/osgbhub-backend/api/middleware"
	buildersvc "github.com/osgbhub/osgbhub-backend/internal/builder"
	"github.com/osgbhub/osgbhub-backend/internal/catalog"
	"github.com/osgbhub/osgbhub-backend/internal/companies"
	"github.com/osgbhub/osgbhub-backend/internal/quotes"
	"github.com/osgbhub/osgbhub-backend/pkg/config"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Builder   *buildersvc.Service
	Quotes    *quotes.Service
	Catalog   catalog.Service
	Companies companies.Service
	Registry  *prometheus.Registry
}

// NewRouter assembles the API router.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/quotes", func(r chi.Router) {
			r.Route("/builder", func(r chi.Router) {
				r.Get("/", buildercontrollers.Fetch(deps.Builder, logg))
				r.Delete("/", buildercontrollers.Reset(deps.Builder, logg))
				r.Post("/header", buildercontrollers.UpdateHeader(deps.Builder, logg))
				r.Post("/adjustments", buildercontrollers.SetAdjustments(deps.Builder, logg))
				r.Post("/currency", buildercontrollers.SetCurrency(deps.Builder, logg))
				r.Get("/suggestions", buildercontrollers.Suggestions(deps.Builder, logg))

				r.Route("/items", func(r chi.Router) {
					r.Post("/", buildercontrollers.AddItem(deps.Builder, logg))
					r.Post("/select-all", buildercontrollers.SelectAll(deps.Builder, logg))
					r.Patch("/{itemId}", buildercontrollers.UpdateItem(deps.Builder, logg))
					r.Delete("/{itemId}", buildercontrollers.RemoveItem(deps.Builder, logg))
					r.Post("/{itemId}/reorder", buildercontrollers.ReorderItem(deps.Builder, logg))
					r.Post("/{itemId}/select", buildercontrollers.ToggleSelect(deps.Builder, logg))
				})

				r.Route("/bulk", func(r chi.Router) {
					r.Post("/discount", buildercontrollers.BulkDiscount(deps.Builder, logg))
					r.Post("/tax", buildercontrollers.BulkTax(deps.Builder, logg))
					r.Post("/price", buildercontrollers.BulkPrice(deps.Builder, logg))
				})
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", buildercontrollers.ListTemplates(deps.Builder, logg))
				r.Post("/", buildercontrollers.SaveTemplate(deps.Builder, logg))
				r.Post("/{templateId}/apply", buildercontrollers.ApplyTemplate(deps.Builder, logg))
				r.Delete("/{templateId}", buildercontrollers.DeleteTemplate(deps.Builder, logg))
			})

			r.Post("/submit", controllers.QuoteSubmit(deps.Quotes, logg))
			r.Get("/", controllers.QuoteList(deps.Quotes, logg))
			r.Get("/{quoteId}", controllers.QuoteDetail(deps.Quotes, logg))
			r.Post("/{quoteId}/status", controllers.QuoteStatus(deps.Quotes, logg))
		})

		r.Route("/catalog/items", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(deps.Catalog, logg))
			r.Post("/", controllers.CatalogCreate(deps.Catalog, logg))
			r.Delete("/{itemId}", controllers.CatalogRetire(deps.Catalog, logg))
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", controllers.CompanySearch(deps.Companies, logg))
			r.Post("/", controllers.CompanyCreate(deps.Companies, logg))
			r.Get("/{companyId}", controllers.CompanyDetail(deps.Companies, logg))
		})
	})

	return r
}
