package model_test

import (
	"testing"

	model "github.com/okian/glade/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewPlayerRating(t *testing.T) {
	Convey("Given a brand new player", t, func() {
		r := model.NewPlayerRating()

		Convey("Then the state should carry the system defaults", func() {
			So(r.Rating, ShouldEqual, 1500)
			So(r.Deviation, ShouldEqual, 350)
			So(r.Volatility, ShouldEqual, 0.06)
			So(r.LastPlayed, ShouldEqual, 0)
		})
	})
}

func TestConservative(t *testing.T) {
	Convey("Given player ratings with varying certainty", t, func() {
		Convey("When the deviation is high", func() {
			r := model.PlayerRating{Rating: 1500, Deviation: 350}
			So(r.Conservative(), ShouldEqual, 800)
		})

		Convey("When the deviation is low", func() {
			r := model.PlayerRating{Rating: 1500, Deviation: 60}
			So(r.Conservative(), ShouldEqual, 1380)
		})

		Convey("When the value is fractional", func() {
			r := model.PlayerRating{Rating: 1500.7, Deviation: 100.2}
			So(r.Conservative(), ShouldEqual, 1300) // floor(1500.7 - 200.4)
		})
	})
}
