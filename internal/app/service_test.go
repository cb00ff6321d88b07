package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mindgauge/mindgauge/internal/adapters/repository"
	"github.com/mindgauge/mindgauge/internal/domain/model"
)

func testProfiles() []model.GameProfile {
	return []model.GameProfile{
		{GameID: "chimp_test", Mean: 10, StdDev: 2.5, Dir: model.HigherIsBetter},
		{GameID: "reaction_time", Mean: 300, StdDev: 50, Dir: model.LowerIsBetter},
	}
}

func startedService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithProfiles(testProfiles()),
		WithSnapshotInterval(10 * time.Millisecond),
	}, opts...)
	svc := New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a configured service", t, func() {
		svc := New(WithProfiles(testProfiles()))

		Convey("When used before Start", func() {
			ctx := context.Background()

			Convey("Then Record rejects the call", func() {
				_, err := svc.Record(ctx, "p1", "chimp_test", 10)
				So(err, ShouldWrap, ErrNotStarted)
			})

			Convey("Then TopN rejects the call", func() {
				_, err := svc.TopN(ctx, "chimp_test", 10)
				So(err, ShouldWrap, ErrNotStarted)
			})

			Convey("Then PlayerStat rejects the call", func() {
				_, _, err := svc.PlayerStat(ctx, "p1", "chimp_test")
				So(err, ShouldWrap, ErrNotStarted)
			})

			Convey("Then Percentile reports zero without panicking", func() {
				So(func() { svc.Percentile("chimp_test", 12) }, ShouldNotPanic)
				So(svc.Percentile("chimp_test", 12), ShouldEqual, 0.0)
			})

			Convey("Then the dedupe surface stays inert without panicking", func() {
				So(func() { svc.SeenAndRecord(ctx, "sub-1") }, ShouldNotPanic)
				So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
				So(func() { svc.Unrecord(ctx, "sub-1") }, ShouldNotPanic)
				So(svc.Size(), ShouldEqual, 0)
			})
		})

		Convey("When started twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
		})

		Convey("When built with a broken profile", func() {
			bad := New(WithProfiles([]model.GameProfile{
				{GameID: "broken", Mean: 10, StdDev: 0},
			}))

			Convey("Then Start fails", func() {
				So(bad.Start(context.Background()), ShouldNotBeNil)
			})
		})
	})
}

func TestServiceRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When a strong chimp test score is submitted", func() {
			res, err := svc.Record(ctx, "alice", "chimp_test", 15)

			Convey("Then the aggregate and percentile reflect it", func() {
				So(err, ShouldBeNil)
				So(res.BestScore, ShouldEqual, 15.0)
				So(res.TotalPlays, ShouldEqual, 1)
				So(res.Tier, ShouldEqual, "Alien")
				So(res.Percentile, ShouldEqual, 97.72)
			})

			Convey("And a later worse play keeps the best", func() {
				res2, err2 := svc.Record(ctx, "alice", "chimp_test", 3)

				So(err2, ShouldBeNil)
				So(res2.BestScore, ShouldEqual, 15.0)
				So(res2.TotalPlays, ShouldEqual, 2)
				So(res2.Tier, ShouldEqual, "Alien")
			})
		})

		Convey("When a reaction time score is submitted", func() {
			res, err := svc.Record(ctx, "bob", "reaction_time", 200)

			Convey("Then a lower score ranks high", func() {
				So(err, ShouldBeNil)
				So(res.Percentile, ShouldEqual, 97.72)
			})

			Convey("And a slower retry does not replace the best", func() {
				res2, err2 := svc.Record(ctx, "bob", "reaction_time", 320)

				So(err2, ShouldBeNil)
				So(res2.BestScore, ShouldEqual, 200.0)
				So(res2.TotalPlays, ShouldEqual, 2)
			})
		})

		Convey("When the submission is invalid", func() {
			Convey("Then a missing game id is rejected", func() {
				_, err := svc.Record(ctx, "alice", "", 10)
				So(err, ShouldWrap, ErrValidation)
			})

			Convey("Then a non-finite score is rejected without side effects", func() {
				_, err := svc.Record(ctx, "alice", "chimp_test", math.NaN())
				So(err, ShouldWrap, ErrValidation)
				_, _, statErr := svc.PlayerStat(ctx, "alice", "chimp_test")
				So(errors.Is(statErr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the player id is blank", func() {
			res, err := svc.Record(ctx, "  ", "chimp_test", 8)

			Convey("Then a guest token is minted", func() {
				So(err, ShouldBeNil)
				So(strings.HasPrefix(res.PlayerID, "guest-"), ShouldBeTrue)
				So(res.PlayerID, ShouldHaveLength, len("guest-")+8)
			})

			Convey("And each blank submission gets a distinct guest", func() {
				res2, err2 := svc.Record(ctx, "", "chimp_test", 8)
				So(err2, ShouldBeNil)
				So(res2.PlayerID, ShouldNotEqual, res.PlayerID)
			})
		})

		Convey("When the game has no reference profile", func() {
			res, err := svc.Record(ctx, "carol", "mystery_game", 42)

			Convey("Then the play is still recorded", func() {
				So(err, ShouldBeNil)
				So(res.BestScore, ShouldEqual, 42.0)
				So(res.Percentile, ShouldEqual, 0.0)
				So(res.Tier, ShouldEqual, "Normal")
			})
		})
	})
}

// upsertFailStore wraps a working store but refuses aggregate updates,
// leaving the history append as the only committed write.
type upsertFailStore struct {
	*repository.MemStore
	failWith error
}

func (s *upsertFailStore) UpsertPlayerGameStat(ctx context.Context, playerID, gameID string, rawScore float64, lowerIsBetter bool, tier repository.TierFunc, playedAt time.Time) (model.PlayerGameStat, error) {
	return model.PlayerGameStat{}, s.failWith
}

func TestServiceRecordPartialFailure(t *testing.T) {
	Convey("Given a service whose aggregate store is failing", t, func() {
		ctx := context.Background()
		store := &upsertFailStore{
			MemStore: repository.NewMemStore(ctx),
			failWith: errors.New("shard unavailable"),
		}
		svc := startedService(t, WithStore(store))

		Convey("When a play is submitted", func() {
			_, err := svc.Record(ctx, "alice", "chimp_test", 15)

			Convey("Then the failure is explicit and the history row is kept", func() {
				So(err, ShouldWrap, ErrAggregation)
				So(errors.Is(err, store.failWith), ShouldBeTrue)
				So(store.CountPlays(ctx), ShouldEqual, 1)
			})

			Convey("And no aggregate exists for the pair", func() {
				So(err, ShouldNotBeNil)
				_, ok, statErr := store.GetPlayerGameStat(ctx, "alice", "chimp_test")
				So(statErr, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestServiceLeaderboard(t *testing.T) {
	Convey("Given a service with a populated chimp test board", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		for _, p := range []struct {
			player string
			score  float64
		}{
			{"alice", 15}, {"bob", 12}, {"carol", 12}, {"dave", 7},
		} {
			_, err := svc.Record(ctx, p.player, "chimp_test", p.score)
			So(err, ShouldBeNil)
		}

		Convey("When the top entries are requested", func() {
			entries, err := svc.TopN(ctx, "chimp_test", 10)

			Convey("Then entries order best-first with dense tie ranks", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[0].PlayerID, ShouldEqual, "alice")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[2].Rank, ShouldEqual, 2)
				So(entries[3].Rank, ShouldEqual, 3)
				So(entries[1].PlayerID, ShouldEqual, "bob")
			})
		})

		Convey("When a lower-is-better board is requested", func() {
			_, err := svc.Record(ctx, "erin", "reaction_time", 250)
			So(err, ShouldBeNil)
			_, err = svc.Record(ctx, "frank", "reaction_time", 310)
			So(err, ShouldBeNil)

			entries, err := svc.TopN(ctx, "reaction_time", 10)

			Convey("Then the fastest player leads", func() {
				So(err, ShouldBeNil)
				So(entries[0].PlayerID, ShouldEqual, "erin")
				So(entries[0].BestScore, ShouldEqual, 250.0)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := svc.TopN(ctx, "chimp_test", 0)

			Convey("Then the store error surfaces", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}

func TestServicePlayerStat(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When an unknown pair is queried", func() {
			_, _, err := svc.PlayerStat(ctx, "ghost", "chimp_test")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a recorded pair is queried", func() {
			_, err := svc.Record(ctx, "alice", "chimp_test", 10)
			So(err, ShouldBeNil)

			stat, pct, err := svc.PlayerStat(ctx, "alice", "chimp_test")

			Convey("Then the aggregate and best percentile come back", func() {
				So(err, ShouldBeNil)
				So(stat.BestScore, ShouldEqual, 10.0)
				So(stat.Tier, ShouldEqual, "Chimp")
				So(pct, ShouldEqual, 50.0)
			})
		})
	})
}

func TestServiceDedupe(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When a submission id is recorded twice", func() {
			first := svc.SeenAndRecord(ctx, "sub-1")
			second := svc.SeenAndRecord(ctx, "sub-1")

			Convey("Then only the retry is seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})

			Convey("And Unrecord makes it fresh again", func() {
				svc.Unrecord(ctx, "sub-1")
				So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})
	})
}

func TestServiceGetStats(t *testing.T) {
	Convey("Given a started service with some plays", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		_, err := svc.Record(ctx, "alice", "chimp_test", 11)
		So(err, ShouldBeNil)
		_, err = svc.Record(ctx, "alice", "chimp_test", 9)
		So(err, ShouldBeNil)

		Convey("When stats are collected", func() {
			stats := svc.GetStats()

			Convey("Then the figures match the stored data", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["totalPairs"], ShouldEqual, 1)
				So(stats["totalPlays"], ShouldEqual, 2)
				So(stats["games"], ShouldResemble, []string{"chimp_test", "reaction_time"})
			})
		})
	})
}
