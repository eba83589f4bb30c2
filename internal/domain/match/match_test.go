package match_test

import (
	"testing"
	"time"

	match "github.com/okian/glade/internal/domain/match"
	"github.com/okian/glade/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOutcome(t *testing.T) {
	Convey("Given two puzzle scores", t, func() {
		Convey("When the player needed fewer guesses", func() {
			So(match.Outcome(2, 5), ShouldEqual, match.Win)
		})

		Convey("When the player needed more guesses", func() {
			So(match.Outcome(5, 2), ShouldEqual, match.Loss)
		})

		Convey("When the scores are equal", func() {
			So(match.Outcome(4, 4), ShouldEqual, match.Draw)
		})

		Convey("When both players failed the puzzle", func() {
			So(match.Outcome(7, 7), ShouldEqual, match.Draw)
		})

		Convey("When one player failed", func() {
			So(match.Outcome(6, 7), ShouldEqual, match.Win)
			So(match.Outcome(7, 6), ShouldEqual, match.Loss)
		})
	})
}

func TestDerive(t *testing.T) {
	score := func(player string, s int, at time.Time) model.NormalizedScore {
		return model.NormalizedScore{
			Tenant:      "t1",
			Player:      player,
			Round:       100,
			Score:       s,
			SubmittedAt: at,
		}
	}
	now := time.Now()

	Convey("Given a round with several participants", t, func() {
		target := score("alice", 3, now)
		participants := []model.NormalizedScore{
			score("bob", 5, now.Add(-2*time.Minute)),
			score("carol", 3, now.Add(-time.Minute)),
			score("dave", 2, now.Add(-30*time.Second)),
		}

		Convey("When deriving pairings for the submitter", func() {
			pairings := match.Derive(target, participants)

			Convey("Then each opponent should yield one pairing in submission order", func() {
				So(len(pairings), ShouldEqual, 3)
				So(pairings[0].Opponent, ShouldEqual, "bob")
				So(pairings[0].Outcome, ShouldEqual, match.Win)
				So(pairings[1].Opponent, ShouldEqual, "carol")
				So(pairings[1].Outcome, ShouldEqual, match.Draw)
				So(pairings[2].Opponent, ShouldEqual, "dave")
				So(pairings[2].Outcome, ShouldEqual, match.Loss)
			})
		})

		Convey("When the participant list includes the submitter's own row", func() {
			withSelf := append([]model.NormalizedScore{target}, participants...)
			pairings := match.Derive(target, withSelf)

			Convey("Then the self entry should be skipped", func() {
				So(len(pairings), ShouldEqual, 3)
				for _, p := range pairings {
					So(p.Opponent, ShouldNotEqual, "alice")
				}
			})
		})

		Convey("When nobody else played the round", func() {
			pairings := match.Derive(target, nil)

			Convey("Then there should be no pairings", func() {
				So(pairings, ShouldBeEmpty)
			})
		})
	})
}
