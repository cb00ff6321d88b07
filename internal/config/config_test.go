package config_test

import (
	"testing"

	config "github.com/mindgauge/mindgauge/internal/config"
	model "github.com/mindgauge/mindgauge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := config.New()

		Convey("Then server defaults are sane", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.ShardCount, ShouldEqual, 8)
			So(cfg.MaxLeaderboardLimit, ShouldEqual, 100)
		})

		Convey("Then the reference population table ships every game", func() {
			So(len(cfg.GameProfiles), ShouldEqual, 8)
			So(cfg.GameProfiles["reaction_time"].Mean, ShouldEqual, 300)
			So(cfg.GameProfiles["reaction_time"].LowerIsBetter, ShouldBeTrue)
			So(cfg.GameProfiles["sequence_memory"].LowerIsBetter, ShouldBeFalse)
		})

		Convey("Then the chimp ladder is configured", func() {
			ladder, ok := cfg.TierLadders["chimp"]
			So(ok, ShouldBeTrue)
			So(len(ladder.Steps), ShouldEqual, 3)
			So(ladder.Fallback, ShouldEqual, "Shrimp")
		})
	})
}

func TestProfilesConversion(t *testing.T) {
	Convey("Given a config with mixed directions", t, func() {
		cfg := config.New()
		profiles := cfg.Profiles()

		Convey("Then every configured game converts", func() {
			So(len(profiles), ShouldEqual, len(cfg.GameProfiles))
		})

		Convey("Then directions carry through", func() {
			byID := make(map[string]model.GameProfile)
			for _, p := range profiles {
				byID[p.GameID] = p
			}
			So(byID["aim_trainer"].Dir, ShouldEqual, model.LowerIsBetter)
			So(byID["number_memory"].Dir, ShouldEqual, model.HigherIsBetter)
			So(byID["chimp_test"].StdDev, ShouldEqual, 2.5)
		})
	})
}
