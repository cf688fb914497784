package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/playertier/config"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/smartystreets/goconvey/convey"
)

var configEnv = []string{
	"PLAYERTIER_CONFIG",
	"PLAYERTIER_SEED",
	"PLAYERTIER_TEST_SIZE",
	"PLAYERTIER_MODELS",
	"PLAYERTIER_WORKERS",
	"PLAYERTIER_LOG__LEVEL",
	"PLAYERTIER_PARAMS__TREES",
	"PLAYERTIER_HISTORY__ENABLED",
	"PLAYERTIER_MISSING_POLICY",
}

func clearConfigEnvVars() {
	for _, key := range configEnv {
		_ = os.Unsetenv(key)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playertier.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should reproduce the reference benchmark", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
				convey.So(cfg.TestSize, convey.ShouldEqual, 0.2)
				convey.So(cfg.MissingPolicy, convey.ShouldEqual, "drop")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "Data")
				convey.So(cfg.Comma(), convey.ShouldEqual, ',')
				convey.So(cfg.Workers, convey.ShouldEqual, 1)
				convey.So(cfg.Params.Trees, convey.ShouldEqual, 100)
				convey.So(cfg.Params.Neighbors, convey.ShouldEqual, 5)
				convey.So(cfg.Params.Epochs, convey.ShouldEqual, 50)
				convey.So(cfg.Models, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
input: telemetry.tsv
delimiter: "\t"
seed: 7
test_size: 0.25
models: [rf, ann]
params:
  trees: 20
history:
  enabled: false
log:
  format: json
`)
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then file values override defaults and the rest keep theirs", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "telemetry.tsv")
				convey.So(cfg.Comma(), convey.ShouldEqual, '\t')
				convey.So(cfg.Seed, convey.ShouldEqual, 7)
				convey.So(cfg.TestSize, convey.ShouldEqual, 0.25)
				convey.So(cfg.Models, convey.ShouldResemble, []string{"rf", "ann"})
				convey.So(cfg.Params.Trees, convey.ShouldEqual, 20)
				convey.So(cfg.Params.Neighbors, convey.ShouldEqual, 5)
				convey.So(cfg.History.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Log.Format, convey.ShouldEqual, "json")
				convey.So(cfg.Log.Level, convey.ShouldEqual, "info")
			})

			convey.Convey("And environment variables are set", func() {
				_ = os.Setenv("PLAYERTIER_SEED", "99")
				_ = os.Setenv("PLAYERTIER_MODELS", "knn, NB")
				_ = os.Setenv("PLAYERTIER_LOG__LEVEL", "debug")
				_ = os.Setenv("PLAYERTIER_PARAMS__TREES", "5")

				cfg, err := config.Load(ctx, path)

				convey.Convey("Then the environment wins over the file", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Seed, convey.ShouldEqual, 99)
					convey.So(cfg.Models, convey.ShouldResemble, []string{"knn", "nb"})
					convey.So(cfg.Log.Level, convey.ShouldEqual, "debug")
					convey.So(cfg.Params.Trees, convey.ShouldEqual, 5)
					convey.So(cfg.TestSize, convey.ShouldEqual, 0.25)
				})
			})
		})

		convey.Convey("When PLAYERTIER_CONFIG names the file", func() {
			path := writeConfigFile(t, "workers: 3\n")
			_ = os.Setenv("PLAYERTIER_CONFIG", path)

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it is loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Workers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values are invalid", func() {
			cases := map[string]string{
				"test size":      "test_size: 1.5\n",
				"unknown model":  "models: [xgboost]\n",
				"unknown policy": "missing_policy: guess\n",
				"delimiter":      "delimiter: \"ab\"\n",
				"log level":      "log:\n  level: loud\n",
				"trees":          "params:\n  trees: 0\n",
				"workers":        "workers: -1\n",
			}
			for name, content := range cases {
				_, err := config.Load(ctx, writeConfigFile(t, content))
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				if !errors.Is(err, config.ErrInvalidConfig) {
					t.Logf("%s: %v", name, err)
				}
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When history is enabled without a path", func() {
			cfg.History.Path = ""

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the model list holds comma-separated entries", func() {
			cfg.Models = []string{"rf,dt", " ANN "}

			convey.Convey("Then it is flattened and lower-cased", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.Models, convey.ShouldResemble, []string{"rf", "dt", "ann"})
			})
		})
	})
}
