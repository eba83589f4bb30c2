package rating_test

import (
	"testing"
	"time"

	"github.com/okian/glade/internal/domain/model"
	rating "github.com/okian/glade/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func score(player string, round int64, s int, at time.Time) model.NormalizedScore {
	return model.NormalizedScore{
		Tenant:      "club",
		Player:      player,
		Round:       round,
		Score:       s,
		SubmittedAt: at,
	}
}

func TestEngine_Apply_FirstSubmission(t *testing.T) {
	Convey("Given an empty tenant", t, func() {
		engine := rating.New()
		states := map[string]model.PlayerRating{}

		Convey("When the first player submits a round", func() {
			upd := engine.Apply(score("alice", 10, 3, time.Now()), states, nil)

			Convey("Then the player should keep the defaults except the deviation", func() {
				alice := upd.Ratings["alice"]
				So(alice.Rating, ShouldEqual, model.DefaultRating)
				So(alice.Volatility, ShouldEqual, model.DefaultVolatility)
				So(alice.LastPlayed, ShouldEqual, 10)
			})

			Convey("And exactly one snapshot should be produced", func() {
				So(len(upd.Snapshots), ShouldEqual, 1)
				So(upd.Snapshots[0].Player, ShouldEqual, "alice")
				So(upd.Snapshots[0].Round, ShouldEqual, 10)
			})
		})
	})
}

func TestEngine_Apply_TwoPlayers(t *testing.T) {
	Convey("Given alice already submitted 3/6 for round 10", t, func() {
		engine := rating.New()
		now := time.Now()
		aliceScore := score("alice", 10, 3, now.Add(-time.Minute))

		states := map[string]model.PlayerRating{}
		first := engine.Apply(aliceScore, states, nil)
		for p, s := range first.Ratings {
			states[p] = s
		}

		Convey("When bob submits 5/6 for the same round", func() {
			upd := engine.Apply(score("bob", 10, 5, now), states, []model.NormalizedScore{aliceScore})

			Convey("Then bob should lose rating and alice should gain", func() {
				So(upd.Ratings["bob"].Rating, ShouldBeLessThan, model.DefaultRating)
				So(upd.Ratings["alice"].Rating, ShouldBeGreaterThan, model.DefaultRating)
			})

			Convey("And both deviations should tighten below the default", func() {
				So(upd.Ratings["bob"].Deviation, ShouldBeLessThan, model.DefaultDeviation)
				So(upd.Ratings["alice"].Deviation, ShouldBeLessThan, model.DefaultDeviation)
			})

			Convey("And both players should be stamped with the round", func() {
				So(upd.Ratings["bob"].LastPlayed, ShouldEqual, 10)
				So(upd.Ratings["alice"].LastPlayed, ShouldEqual, 10)
			})

			Convey("And the submitter's snapshot should come first", func() {
				So(len(upd.Snapshots), ShouldEqual, 2)
				So(upd.Snapshots[0].Player, ShouldEqual, "bob")
				So(upd.Snapshots[1].Player, ShouldEqual, "alice")
			})
		})
	})
}

func TestEngine_Apply_InactivityDecay(t *testing.T) {
	Convey("Given a player who last played long ago", t, func() {
		engine := rating.New()
		states := map[string]model.PlayerRating{
			"rip": {Rating: 1600, Deviation: 80, Volatility: 0.06, LastPlayed: 100},
		}

		Convey("When they submit a round much later with no opponents", func() {
			upd := engine.Apply(score("rip", 150, 4, time.Now()), states, nil)

			Convey("Then the stored deviation should have widened past the decay alone", func() {
				// 50 rounds idle at the default rate grows 80 past 130
				// before the no-result widening on top.
				So(upd.Ratings["rip"].Deviation, ShouldBeGreaterThan, 130)
				So(upd.Ratings["rip"].Deviation, ShouldBeLessThanOrEqualTo, model.MaxDeviation)
			})

			Convey("And the rating itself should be untouched", func() {
				So(upd.Ratings["rip"].Rating, ShouldAlmostEqual, 1600, 0.0001)
			})
		})
	})
}

func TestEngine_Recalculate_Deterministic(t *testing.T) {
	Convey("Given a multi-round history", t, func() {
		engine := rating.New()
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		history := []model.NormalizedScore{
			score("alice", 10, 3, base),
			score("bob", 10, 5, base.Add(time.Minute)),
			score("carol", 10, 2, base.Add(2*time.Minute)),
			score("alice", 11, 4, base.Add(24*time.Hour)),
			score("bob", 11, 4, base.Add(24*time.Hour+time.Minute)),
			score("carol", 12, 6, base.Add(48*time.Hour)),
		}

		Convey("When replaying the same history twice", func() {
			first := engine.Recalculate(history)
			second := engine.Recalculate(history)

			Convey("Then both runs should produce identical state", func() {
				So(second.Ratings, ShouldResemble, first.Ratings)
				So(second.Snapshots, ShouldResemble, first.Snapshots)
			})
		})

		Convey("When replaying the history in shuffled input order", func() {
			shuffled := []model.NormalizedScore{
				history[5], history[2], history[0], history[4], history[1], history[3],
			}
			first := engine.Recalculate(history)
			reordered := engine.Recalculate(shuffled)

			Convey("Then the result should not depend on input order", func() {
				So(reordered.Ratings, ShouldResemble, first.Ratings)
			})
		})

		Convey("When inspecting the snapshot log", func() {
			res := engine.Recalculate(history)

			Convey("Then each player should have one row per round played", func() {
				type key struct {
					player string
					round  int64
				}
				perKey := make(map[key]int)
				for _, snap := range res.Snapshots {
					perKey[key{snap.Player, snap.Round}]++
				}
				for _, n := range perKey {
					So(n, ShouldEqual, 1)
				}
				So(len(res.Snapshots), ShouldEqual, 6)
			})
		})

		Convey("When the replay finishes", func() {
			res := engine.Recalculate(history)

			Convey("Then the best solver should lead the ratings", func() {
				So(res.Ratings["carol"].Rating, ShouldBeGreaterThan, res.Ratings["bob"].Rating)
			})
		})
	})
}

func TestEngine_Options(t *testing.T) {
	Convey("Given engines with different decay rates", t, func() {
		slow := rating.New(rating.WithDecayRate(1))
		fast := rating.New(rating.WithDecayRate(60))
		states := func() map[string]model.PlayerRating {
			return map[string]model.PlayerRating{
				"idle": {Rating: 1500, Deviation: 100, Volatility: 0.06, LastPlayed: 1},
			}
		}

		Convey("When the same idle player returns after ten rounds", func() {
			slowUpd := slow.Apply(score("idle", 11, 3, time.Now()), states(), nil)
			fastUpd := fast.Apply(score("idle", 11, 3, time.Now()), states(), nil)

			Convey("Then the faster decay should leave a wider deviation", func() {
				So(fastUpd.Ratings["idle"].Deviation, ShouldBeGreaterThan, slowUpd.Ratings["idle"].Deviation)
			})
		})
	})
}
