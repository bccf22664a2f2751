package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/devstats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8050")
				convey.So(cfg.TopN, convey.ShouldEqual, 3)
				convey.So(cfg.HistogramBins, convey.ShouldEqual, 20)
				convey.So(cfg.MaxHistogramBins, convey.ShouldEqual, 200)
				convey.So(cfg.DatasetPath, convey.ShouldBeEmpty)
				convey.So(cfg.DefaultIndicator, convey.ShouldEqual, "Life expectancy")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DEVSTATS_ADDR", ":8080")
			_ = os.Setenv("DEVSTATS_TOP_N", "5")
			_ = os.Setenv("DEVSTATS_HISTOGRAM_BINS", "30")
			_ = os.Setenv("DEVSTATS_DATASET_PATH", "/data/indicators.csv")
			_ = os.Setenv("DEVSTATS_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(cfg.HistogramBins, convey.ShouldEqual, 30)
				convey.So(cfg.DatasetPath, convey.ShouldEqual, "/data/indicators.csv")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
top_n: 4
histogram_bins: 10
default_indicator: "GDP"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DEVSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TopN, convey.ShouldEqual, 4)
				convey.So(cfg.HistogramBins, convey.ShouldEqual, 10)
				convey.So(cfg.DefaultIndicator, convey.ShouldEqual, "GDP")
				convey.So(cfg.MaxHistogramBins, convey.ShouldEqual, 200) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
top_n: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DEVSTATS_CONFIG", tmpFile)
			_ = os.Setenv("DEVSTATS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.TopN, convey.ShouldEqual, 4)       // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DEVSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DEVSTATS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("DEVSTATS_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When histogram_bins exceeds the cap", func() {
			_ = os.Setenv("DEVSTATS_HISTOGRAM_BINS", "500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When top_n is not a number", func() {
			_ = os.Setenv("DEVSTATS_TOP_N", "three")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail to unmarshal", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"DEVSTATS_CONFIG",
		"DEVSTATS_ADDR",
		"DEVSTATS_LOG_LEVEL",
		"DEVSTATS_LOG_FORMAT",
		"DEVSTATS_DATASET_PATH",
		"DEVSTATS_TOP_N",
		"DEVSTATS_HISTOGRAM_BINS",
		"DEVSTATS_MAX_HISTOGRAM_BINS",
		"DEVSTATS_DEFAULT_INDICATOR",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "devstats-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
