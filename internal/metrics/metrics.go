package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	SweepRemovedRecords    prometheus.Counter
	SweepRemovedStageCfgs  prometheus.Counter
	SweepRemovedStepOrders prometheus.Counter
	SweepRemovedLegacy     prometheus.Counter

	MigrationRuns    prometheus.Counter
	MigratedProducts prometheus.Counter
	QuotaErrors      prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	remRecords := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_sweep_removed_records_total"})
	remStageCfgs := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_sweep_removed_stage_configs_total"})
	remStepOrders := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_sweep_removed_step_orders_total"})
	remLegacy := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_sweep_removed_legacy_total"})

	migRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_migration_runs_total"})
	migProducts := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_migrated_products_total"})
	quotaErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "cfp_quota_errors_total"})

	r.MustRegister(remRecords, remStageCfgs, remStepOrders, remLegacy, migRuns, migProducts, quotaErrs)
	return &Registry{
		reg:                    r,
		SweepRemovedRecords:    remRecords,
		SweepRemovedStageCfgs:  remStageCfgs,
		SweepRemovedStepOrders: remStepOrders,
		SweepRemovedLegacy:     remLegacy,
		MigrationRuns:          migRuns,
		MigratedProducts:       migProducts,
		QuotaErrors:            quotaErrs,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
