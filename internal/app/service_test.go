package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/glade/internal/adapters/repository"
	app "github.com/okian/glade/internal/app"
	"github.com/okian/glade/internal/domain/model"
	"github.com/okian/glade/internal/domain/parse"
	"github.com/okian/glade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startService(t *testing.T, opts ...app.Option) *app.Service {
	t.Helper()
	svc := app.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_SubmitText(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service on an in-memory store", t, func() {
		svc := startService(t)

		Convey("When submitting a valid shared result", func() {
			res, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #1419 3/6")

			Convey("Then the parsed round and score should come back", func() {
				So(err, ShouldBeNil)
				So(res.Round, ShouldEqual, 1419)
				So(res.Score, ShouldEqual, 3)
			})

			Convey("And the submitter should be rated with defaults", func() {
				So(res.Ratings["alice"].Rating, ShouldEqual, model.DefaultRating)
				So(res.Ratings["alice"].LastPlayed, ShouldEqual, 1419)
			})
		})

		Convey("When submitting a failed attempt", func() {
			res, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #1419 X/6")
			So(err, ShouldBeNil)
			So(res.Score, ShouldEqual, parse.FailureScore)
		})

		Convey("When the text cannot be parsed", func() {
			_, err := svc.SubmitText(ctx, "club", "alice", "nothing to see")
			So(errors.Is(err, parse.ErrUnparsable), ShouldBeTrue)
		})

		Convey("When the tenant is missing", func() {
			_, err := svc.SubmitText(ctx, "", "alice", "#Tradle #1419 3/6")
			So(errors.Is(err, app.ErrTenantRequired), ShouldBeTrue)
		})

		Convey("When the player is missing", func() {
			_, err := svc.SubmitText(ctx, "club", "", "#Tradle #1419 3/6")
			So(errors.Is(err, app.ErrPlayerRequired), ShouldBeTrue)
		})
	})
}

func TestService_Submit_PairsAgainstRound(t *testing.T) {
	ctx := context.Background()

	Convey("Given alice already posted 3/6 for round 1419", t, func() {
		svc := startService(t)
		_, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #1419 3/6")
		So(err, ShouldBeNil)

		Convey("When bob posts 5/6 for the same round", func() {
			res, err := svc.SubmitText(ctx, "club", "bob", "#Tradle #1419 5/6")
			So(err, ShouldBeNil)

			Convey("Then both players should move in opposite directions", func() {
				So(res.Ratings["bob"].Rating, ShouldBeLessThan, model.DefaultRating)
				So(res.Ratings["alice"].Rating, ShouldBeGreaterThan, model.DefaultRating)
			})

			Convey("And the leaderboard should rank alice above bob", func() {
				standings, err := svc.Leaderboard(ctx, "club")
				So(err, ShouldBeNil)
				So(len(standings), ShouldEqual, 2)
				So(standings[0].Player, ShouldEqual, "alice")
				So(standings[1].Player, ShouldEqual, "bob")
			})

			Convey("And both histories should carry a round-1419 snapshot", func() {
				for _, player := range []string{"alice", "bob"} {
					snaps, err := svc.PlayerHistory(ctx, "club", player)
					So(err, ShouldBeNil)
					So(len(snaps), ShouldEqual, 1)
					So(snaps[0].Round, ShouldEqual, 1419)
				}
			})
		})

		Convey("When alice resubmits the same round", func() {
			_, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #1419 6/6")

			Convey("Then the duplicate should be rejected", func() {
				So(errors.Is(err, repository.ErrDuplicateScore), ShouldBeTrue)
			})

			Convey("And the stored rating should be unchanged", func() {
				standings, _ := svc.Leaderboard(ctx, "club")
				So(len(standings), ShouldEqual, 1)
				So(standings[0].Rating, ShouldEqual, model.DefaultRating)
			})
		})

		Convey("When bob posts under a different tenant", func() {
			res, err := svc.SubmitText(ctx, "guild", "bob", "#Tradle #1419 5/6")
			So(err, ShouldBeNil)

			Convey("Then he should be rated in isolation", func() {
				So(len(res.Ratings), ShouldEqual, 1)
				So(res.Ratings["bob"].Rating, ShouldEqual, model.DefaultRating)
			})
		})
	})
}

func TestService_Recalculate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tenant with a few rounds of history", t, func() {
		clock := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		svc := startService(t, app.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}))

		for _, sub := range []struct {
			player string
			text   string
		}{
			{"alice", "#Tradle #100 3/6"},
			{"bob", "#Tradle #100 5/6"},
			{"carol", "#Tradle #100 2/6"},
			{"alice", "#Tradle #101 4/6"},
			{"bob", "#Tradle #101 2/6"},
		} {
			_, err := svc.SubmitText(ctx, "club", sub.player, sub.text)
			So(err, ShouldBeNil)
		}

		Convey("When recalculating the tenant", func() {
			ratings, err := svc.Recalculate(ctx, "club")
			So(err, ShouldBeNil)

			Convey("Then every player should be present", func() {
				So(len(ratings), ShouldEqual, 3)
			})

			Convey("And a second recalculation should be a fixed point", func() {
				again, err := svc.Recalculate(ctx, "club")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, ratings)
			})

			Convey("And the replayed history should stay queryable", func() {
				snaps, err := svc.PlayerHistory(ctx, "club", "alice")
				So(err, ShouldBeNil)
				So(len(snaps), ShouldEqual, 2)
				So(snaps[0].Round, ShouldEqual, 100)
				So(snaps[1].Round, ShouldEqual, 101)
			})
		})

		Convey("When recalculating without a tenant", func() {
			_, err := svc.Recalculate(ctx, "")
			So(errors.Is(err, app.ErrTenantRequired), ShouldBeTrue)
		})
	})
}

// blockingStore parks Scores until released, holding a recalculation
// mid-flight so concurrent behavior can be observed.
type blockingStore struct {
	repository.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Scores(ctx context.Context, tenant string) ([]model.NormalizedScore, error) {
	close(s.entered)
	<-s.release
	return s.Store.Scores(ctx, tenant)
}

func TestService_Submit_DuringRecalculation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a recalculation holding the tenant gate", t, func() {
		store := &blockingStore{
			Store:   repository.NewMemStore(),
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		svc := startService(t, app.WithStore(store))
		_, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #100 3/6")
		So(err, ShouldBeNil)

		done := make(chan error, 1)
		go func() {
			_, err := svc.Recalculate(ctx, "club")
			done <- err
		}()
		<-store.entered

		Convey("When a submission arrives mid-recalculation", func() {
			_, err := svc.SubmitText(ctx, "club", "bob", "#Tradle #100 5/6")

			Convey("Then it should be rejected, not interleaved", func() {
				So(errors.Is(err, app.ErrRecalculationInProgress), ShouldBeTrue)

				close(store.release)
				So(<-done, ShouldBeNil)

				Convey("And submissions should succeed once the replay finishes", func() {
					_, err := svc.SubmitText(ctx, "club", "bob", "#Tradle #100 5/6")
					So(err, ShouldBeNil)
				})
			})
		})
	})
}

func TestService_Submit_Validation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService(t)

		Convey("When a score is out of range", func() {
			_, err := svc.Submit(ctx, model.NormalizedScore{
				Tenant: "club", Player: "alice", Round: 1, Score: 0, SubmittedAt: time.Now(),
			})
			So(errors.Is(err, app.ErrInvalidScore), ShouldBeTrue)

			_, err = svc.Submit(ctx, model.NormalizedScore{
				Tenant: "club", Player: "alice", Round: 1, Score: 8, SubmittedAt: time.Now(),
			})
			So(errors.Is(err, app.ErrInvalidScore), ShouldBeTrue)
		})
	})
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with some rated players", t, func() {
		svc := startService(t)
		_, err := svc.SubmitText(ctx, "club", "alice", "#Tradle #100 3/6")
		So(err, ShouldBeNil)
		_, err = svc.SubmitText(ctx, "guild", "bob", "#Tradle #100 4/6")
		So(err, ShouldBeNil)

		Convey("When reading the stats", func() {
			stats := svc.Stats()

			Convey("Then counts and configuration should be exposed", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["tenants"], ShouldEqual, 2)
				So(stats["players"], ShouldEqual, 2)
				So(stats["tau"], ShouldEqual, 0.5)
			})
		})
	})
}
