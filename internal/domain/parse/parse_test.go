package parse_test

import (
	"errors"
	"fmt"
	"testing"

	parse "github.com/okian/glade/internal/domain/parse"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given shared-result texts", t, func() {
		Convey("When parsing a normal result", func() {
			round, score, err := parse.Score("#Tradle #1419 3/6")
			So(err, ShouldBeNil)
			So(round, ShouldEqual, 1419)
			So(score, ShouldEqual, 3)
		})

		Convey("When parsing a failed attempt", func() {
			round, score, err := parse.Score("#Tradle #1419 X/6")
			So(err, ShouldBeNil)
			So(round, ShouldEqual, 1419)
			So(score, ShouldEqual, parse.FailureScore)
		})

		Convey("When the result is embedded in surrounding chatter", func() {
			round, score, err := parse.Score("got it today! #Tradle #88 1/6 🎉 so lucky")
			So(err, ShouldBeNil)
			So(round, ShouldEqual, 88)
			So(score, ShouldEqual, 1)
		})

		Convey("When parsing all valid guess counts", func() {
			for want := 1; want <= 6; want++ {
				_, score, err := parse.Score(fmt.Sprintf("#Tradle #10 %d/6", want))
				So(err, ShouldBeNil)
				So(score, ShouldEqual, want)
			}
		})

		Convey("When the text carries no recognizable result", func() {
			cases := []string{
				"",
				"hello world",
				"#Tradle 1419 3/6",
				"#Tradle #1419 0/6",
				"#Tradle #1419 7/6",
				"#Tradle # 3/6",
			}
			for _, text := range cases {
				_, _, err := parse.Score(text)
				So(errors.Is(err, parse.ErrUnparsable), ShouldBeTrue)
			}
		})
	})
}
