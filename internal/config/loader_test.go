package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mindgauge/mindgauge/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"MINDGAUGE_CONFIG",
		"MINDGAUGE_ADDR",
		"MINDGAUGE_LOG_LEVEL",
		"MINDGAUGE_SHARD_COUNT",
		"MINDGAUGE_MAX_LEADERBOARD_LIMIT",
		"MINDGAUGE_SNAPSHOT_INTERVAL_MS",
		"MINDGAUGE_DEDUPE_SIZE",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "mindgauge-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(len(cfg.GameProfiles), convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MINDGAUGE_ADDR", ":8080")
			_ = os.Setenv("MINDGAUGE_SHARD_COUNT", "16")
			_ = os.Setenv("MINDGAUGE_MAX_LEADERBOARD_LIMIT", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
shard_count: 4
dedupe_size: 10000
game_profiles:
  schulte_dynamic:
    mean: 45
    std_dev: 12
    lower_is_better: true
tier_ladders:
  schulte:
    fallback: Rookie
    steps:
      - min: 30
        label: Hawk
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("MINDGAUGE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10000)
				convey.So(cfg.GameProfiles["schulte_dynamic"].Mean, convey.ShouldEqual, 45)
				convey.So(cfg.GameProfiles["schulte_dynamic"].LowerIsBetter, convey.ShouldBeTrue)
				convey.So(cfg.TierLadders["schulte"].Fallback, convey.ShouldEqual, "Rookie")
			})
		})

		convey.Convey("When file and environment variables overlap", func() {
			yamlContent := `
addr: ":9090"
shard_count: 4
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("MINDGAUGE_CONFIG", tmpFile)
			_ = os.Setenv("MINDGAUGE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the configured addr is empty", func() {
			yamlContent := `addr: ""`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("MINDGAUGE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the leaderboard limit is below one", func() {
			_ = os.Setenv("MINDGAUGE_MAX_LEADERBOARD_LIMIT", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("MINDGAUGE_CONFIG", "/nonexistent/mindgauge.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
