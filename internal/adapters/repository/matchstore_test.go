package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repository "github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryMatchStore(t *testing.T) {
	Convey("Given an in-memory match store", t, func() {
		store := repository.NewInMemoryMatchStore()
		ctx := context.Background()

		rec := model.MatchRecord{
			ID:          "match-1",
			CandidateID: "cand-1",
			JobID:       "job-1",
			OwnerID:     "owner-1",
			Overall:     88.5,
			Outcome:     model.OutcomePending,
			CreatedAt:   time.Now().UTC(),
		}

		Convey("When a record is appended", func() {
			err := store.Append(ctx, rec)
			So(err, ShouldBeNil)

			Convey("Then it can be read back by id", func() {
				got, err := store.Get(ctx, "match-1")
				So(err, ShouldBeNil)
				So(got.CandidateID, ShouldEqual, "cand-1")
				So(got.Overall, ShouldEqual, 88.5)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And reading an unknown id returns not found", func() {
				_, err := store.Get(ctx, "missing")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When lifecycle flags are set across separate calls", func() {
			So(store.Append(ctx, rec), ShouldBeNil)

			So(store.SetFlags(ctx, "match-1", repository.FlagUpdate{Viewed: true}), ShouldBeNil)
			So(store.SetFlags(ctx, "match-1", repository.FlagUpdate{Applied: true}), ShouldBeNil)

			Convey("Then flags accumulate and never reset", func() {
				got, err := store.Get(ctx, "match-1")
				So(err, ShouldBeNil)
				So(got.WasViewed, ShouldBeTrue)
				So(got.WasApplied, ShouldBeTrue)
				So(got.WasRecommended, ShouldBeFalse)

				// A zero-value update leaves everything as is.
				So(store.SetFlags(ctx, "match-1", repository.FlagUpdate{}), ShouldBeNil)
				got, err = store.Get(ctx, "match-1")
				So(err, ShouldBeNil)
				So(got.WasViewed, ShouldBeTrue)
				So(got.WasApplied, ShouldBeTrue)
			})

			Convey("And setting flags on an unknown id returns not found", func() {
				err := store.SetFlags(ctx, "missing", repository.FlagUpdate{Viewed: true})
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When a terminal outcome is recorded", func() {
			So(store.Append(ctx, rec), ShouldBeNil)

			outcomeDate := time.Now().UTC()
			err := store.SetOutcome(ctx, "match-1", repository.OutcomeUpdate{
				Outcome: model.OutcomeHired,
				Date:    outcomeDate,
				Notes:   "signed offer",
			})
			So(err, ShouldBeNil)

			Convey("Then the record carries the outcome", func() {
				got, err := store.Get(ctx, "match-1")
				So(err, ShouldBeNil)
				So(got.Outcome, ShouldEqual, model.OutcomeHired)
				So(got.OutcomeDate, ShouldNotBeNil)
				So(got.OutcomeNotes, ShouldEqual, "signed offer")
			})

			Convey("And a second terminal write without correction is rejected", func() {
				err := store.SetOutcome(ctx, "match-1", repository.OutcomeUpdate{
					Outcome: model.OutcomeRejected,
					Date:    time.Now().UTC(),
				})
				So(err, ShouldEqual, repository.ErrOutcomeAlreadySet)

				got, _ := store.Get(ctx, "match-1")
				So(got.Outcome, ShouldEqual, model.OutcomeHired)
			})

			Convey("And a correction overwrites the outcome", func() {
				err := store.SetOutcome(ctx, "match-1", repository.OutcomeUpdate{
					Outcome:    model.OutcomeWithdrawn,
					Date:       time.Now().UTC(),
					Correction: true,
				})
				So(err, ShouldBeNil)

				got, _ := store.Get(ctx, "match-1")
				So(got.Outcome, ShouldEqual, model.OutcomeWithdrawn)
			})
		})

		Convey("When an invalid outcome value is written", func() {
			So(store.Append(ctx, rec), ShouldBeNil)

			err := store.SetOutcome(ctx, "match-1", repository.OutcomeUpdate{Outcome: "ghosted"})

			Convey("Then the write is rejected", func() {
				So(err, ShouldEqual, repository.ErrInvalidOutcome)
			})
		})
	})
}

func TestInMemoryMatchStore_List(t *testing.T) {
	Convey("Given a store with several records", t, func() {
		store := repository.NewInMemoryMatchStore(repository.WithShardCount(4))
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		records := []model.MatchRecord{
			{ID: "m1", OwnerID: "owner-1", CandidateID: "c1", JobID: "j2", Overall: 90, CreatedAt: base},
			{ID: "m2", OwnerID: "owner-1", CandidateID: "c1", JobID: "j1", Overall: 90, CreatedAt: base.Add(time.Hour)},
			{ID: "m3", OwnerID: "owner-1", CandidateID: "c2", JobID: "j3", Overall: 60, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "m4", OwnerID: "owner-2", CandidateID: "c3", JobID: "j4", Overall: 75, CreatedAt: base.Add(3 * time.Hour)},
		}
		for _, r := range records {
			So(store.Append(ctx, r), ShouldBeNil)
		}

		Convey("When listing by score", func() {
			out, err := store.List(ctx, repository.MatchFilter{Order: repository.OrderByScoreDesc})
			So(err, ShouldBeNil)

			Convey("Then ties break on job id ascending", func() {
				So(len(out), ShouldEqual, 4)
				So(out[0].JobID, ShouldEqual, "j1")
				So(out[1].JobID, ShouldEqual, "j2")
				So(out[2].Overall, ShouldEqual, 75.0)
				So(out[3].Overall, ShouldEqual, 60.0)
			})
		})

		Convey("When listing by creation time", func() {
			out, err := store.List(ctx, repository.MatchFilter{Order: repository.OrderByCreatedDesc})
			So(err, ShouldBeNil)

			Convey("Then newest records come first", func() {
				So(out[0].ID, ShouldEqual, "m4")
				So(out[3].ID, ShouldEqual, "m1")
			})
		})

		Convey("When filtering by owner and candidate", func() {
			out, err := store.List(ctx, repository.MatchFilter{OwnerID: "owner-1", CandidateID: "c1"})
			So(err, ShouldBeNil)

			Convey("Then only matching records return", func() {
				So(len(out), ShouldEqual, 2)
				for _, r := range out {
					So(r.CandidateID, ShouldEqual, "c1")
				}
			})
		})

		Convey("When filtering by minimum score and time range", func() {
			out, err := store.List(ctx, repository.MatchFilter{
				MinOverall: 70,
				From:       base.Add(time.Hour),
				To:         base.Add(4 * time.Hour),
			})
			So(err, ShouldBeNil)

			Convey("Then records outside the window or below the floor are dropped", func() {
				So(len(out), ShouldEqual, 2)
				So(out[0].ID, ShouldEqual, "m2")
				So(out[1].ID, ShouldEqual, "m4")
			})
		})

		Convey("When a limit is applied", func() {
			out, err := store.List(ctx, repository.MatchFilter{Limit: 2})
			So(err, ShouldBeNil)

			Convey("Then at most that many records return", func() {
				So(len(out), ShouldEqual, 2)
			})
		})
	})

	Convey("Given many records spread over shards", t, func() {
		store := repository.NewInMemoryMatchStore(repository.WithShardCount(3))
		ctx := context.Background()

		for i := 0; i < 50; i++ {
			rec := model.MatchRecord{
				ID:        fmt.Sprintf("match-%02d", i),
				OwnerID:   "owner-1",
				Overall:   float64(i),
				CreatedAt: time.Now().UTC(),
			}
			So(store.Append(ctx, rec), ShouldBeNil)
		}

		Convey("When counting", func() {
			Convey("Then every shard contributes", func() {
				So(store.Count(ctx), ShouldEqual, 50)
			})
		})

		Convey("When listing everything by score", func() {
			out, err := store.List(ctx, repository.MatchFilter{Order: repository.OrderByScoreDesc})
			So(err, ShouldBeNil)

			Convey("Then the ordering is global, not per shard", func() {
				So(len(out), ShouldEqual, 50)
				So(out[0].Overall, ShouldEqual, 49.0)
				So(out[49].Overall, ShouldEqual, 0.0)
			})
		})
	})
}
