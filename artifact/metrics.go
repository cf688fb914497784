package artifact

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/prepare"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "playertier"

// runMetrics are the gauges of one run, registered on a private registry so
// repeated runs in one process never collide.
type runMetrics struct {
	registry *prometheus.Registry

	accuracy    *prometheus.GaugeVec
	f1Macro     *prometheus.GaugeVec
	fitSeconds  *prometheus.GaugeVec
	failed      *prometheus.GaugeVec
	rmse        *prometheus.GaugeVec
	rows        *prometheus.GaugeVec
	dropped     prometheus.Gauge
	runDuration prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &runMetrics{
		registry: reg,
		accuracy: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "model",
			Name: "accuracy", Help: "Test accuracy of each classifier.",
		}, []string{"model"}),
		f1Macro: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "model",
			Name: "f1_macro", Help: "Macro-averaged F1 of each classifier.",
		}, []string{"model"}),
		fitSeconds: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "model",
			Name: "fit_seconds", Help: "Time spent fitting each model.",
		}, []string{"model"}),
		failed: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "model",
			Name: "failed", Help: "1 if the model failed to fit or predict.",
		}, []string{"model"}),
		rmse: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "model",
			Name: "rmse", Help: "Test RMSE of each regressor.",
		}, []string{"model"}),
		rows: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "dataset",
			Name: "rows", Help: "Rows per partition.",
		}, []string{"split"}),
		dropped: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "dataset",
			Name: "dropped_rows", Help: "Rows removed by the missing-value policy.",
		}),
		runDuration: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "run",
			Name: "duration_seconds", Help: "Wall time of the evaluation.",
		}),
	}
}

func (m *runMetrics) observe(ds *prepare.Dataset, run *evaluation.Run) {
	m.rows.WithLabelValues("train").Set(float64(len(ds.Train.Y)))
	m.rows.WithLabelValues("test").Set(float64(len(ds.Test.Y)))
	m.dropped.Set(float64(ds.Dropped))
	m.runDuration.Set(run.Duration.Seconds())

	for _, res := range run.Results {
		m.fitSeconds.WithLabelValues(res.Key).Set(res.FitDuration.Seconds())
		if res.Failed {
			m.failed.WithLabelValues(res.Key).Set(1)
			continue
		}
		m.failed.WithLabelValues(res.Key).Set(0)
		switch res.Kind {
		case evaluation.KindRegressor:
			m.rmse.WithLabelValues(res.Key).Set(res.Regression.RMSE)
		default:
			m.accuracy.WithLabelValues(res.Key).Set(res.Accuracy)
			m.f1Macro.WithLabelValues(res.Key).Set(res.Report.MacroAvg.F1)
		}
	}
}

// WriteMetrics writes the run's gauges to path in the Prometheus text
// exposition format, for the node_exporter textfile collector.
func WriteMetrics(path string, ds *prepare.Dataset, run *evaluation.Run) error {
	m := newRunMetrics()
	m.observe(ds, run)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
