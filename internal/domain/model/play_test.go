package model_test

import (
	"testing"

	model "github.com/mindgauge/mindgauge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseDirection(t *testing.T) {
	convey.Convey("Given direction tokens", t, func() {
		convey.Convey("When parsing higher-is-better spellings", func() {
			for _, s := range []string{"", "higher_is_better", "higher", "false", "HIGHER"} {
				d, err := model.ParseDirection(s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(d, convey.ShouldEqual, model.HigherIsBetter)
			}
		})

		convey.Convey("When parsing lower-is-better spellings", func() {
			for _, s := range []string{"lower_is_better", "lower", "true", " Lower "} {
				d, err := model.ParseDirection(s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(d, convey.ShouldEqual, model.LowerIsBetter)
			}
		})

		convey.Convey("When parsing garbage", func() {
			_, err := model.ParseDirection("sideways")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestDirectionString(t *testing.T) {
	convey.Convey("Given both directions", t, func() {
		convey.So(model.HigherIsBetter.String(), convey.ShouldEqual, "higher_is_better")
		convey.So(model.LowerIsBetter.String(), convey.ShouldEqual, "lower_is_better")
	})
}
