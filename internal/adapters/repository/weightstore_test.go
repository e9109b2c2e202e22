package repository_test

import (
	"context"
	"testing"

	repository "github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryWeightProfileStore(t *testing.T) {
	Convey("Given a weight profile store with a default profile", t, func() {
		store := repository.NewInMemoryWeightProfileStore(model.DefaultWeightProfile())
		ctx := context.Background()

		Convey("When an owner has no configured profile", func() {
			p, err := store.Profile(ctx, "owner-1")

			Convey("Then the default profile is returned", func() {
				So(err, ShouldBeNil)
				So(p.Version, ShouldEqual, "default-v1")
				So(p.TechnicalWeight, ShouldEqual, 40.0)
			})
		})

		Convey("When a tenant profile is installed", func() {
			custom := model.AttributeWeightProfile{
				OwnerID:         "owner-1",
				Version:         "owner-1-v2",
				TechnicalWeight: 60,
				CultureWeight:   20,
				WellbeingWeight: 20,
			}
			store.SetProfile(ctx, "owner-1", custom)

			Convey("Then that owner reads it back while others keep the default", func() {
				p, err := store.Profile(ctx, "owner-1")
				So(err, ShouldBeNil)
				So(p.Version, ShouldEqual, "owner-1-v2")

				other, err := store.Profile(ctx, "owner-2")
				So(err, ShouldBeNil)
				So(other.Version, ShouldEqual, "default-v1")
			})
		})

		Convey("When analytics stores a recommendation", func() {
			rec := model.AttributeWeightProfile{
				OwnerID:         "owner-1",
				Version:         "recommended-1",
				TechnicalWeight: 55,
				CultureWeight:   25,
				WellbeingWeight: 20,
			}
			So(store.PutRecommendation(ctx, "owner-1", rec), ShouldBeNil)

			Convey("Then it is readable but does not replace the active profile", func() {
				got, err := store.Recommendation(ctx, "owner-1")
				So(err, ShouldBeNil)
				So(got.Version, ShouldEqual, "recommended-1")

				active, _ := store.Profile(ctx, "owner-1")
				So(active.Version, ShouldEqual, "default-v1")
			})
		})

		Convey("When no recommendation exists", func() {
			_, err := store.Recommendation(ctx, "owner-9")

			Convey("Then not found is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}
