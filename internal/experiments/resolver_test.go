package experiments_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repository "github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	experiments "github.com/hirewire/matchcore/internal/experiments"
	"github.com/hirewire/matchcore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// captureNotifier counts NotifyOnce calls per dedupe key.
type captureNotifier struct {
	mu   sync.Mutex
	keys map[string]int
}

func (n *captureNotifier) NotifyOnce(_ context.Context, dedupeKey string, _ time.Duration, build func() model.NotificationEvent) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.keys == nil {
		n.keys = make(map[string]int)
	}
	_ = build()
	n.keys[dedupeKey]++
	return n.keys[dedupeKey] == 1, nil
}

func seedExperiment(ctx context.Context, store repository.ExperimentStore, status model.ExperimentStatus) model.ExperimentDefinition {
	def := model.ExperimentDefinition{
		ID:            "exp-1",
		OwnerID:       "owner-1",
		Name:          "subject line test",
		PrimaryMetric: model.MetricOpenRate,
		Status:        status,
	}
	if err := store.PutDefinition(ctx, def); err != nil {
		panic(err)
	}
	return def
}

func seedVariants(ctx context.Context, store repository.ExperimentStore, openedA, openedB int64) {
	for _, res := range []model.ExperimentVariantResult{
		{ExperimentID: "exp-1", Variant: model.VariantA, Sent: 100, Opened: openedA},
		{ExperimentID: "exp-1", Variant: model.VariantB, Sent: 100, Opened: openedB},
	} {
		if err := store.PutVariantResult(ctx, res); err != nil {
			panic(err)
		}
	}
}

func TestResolver_Evaluate(t *testing.T) {
	Convey("Given an active experiment with a clear winner", t, func() {
		store := repository.NewInMemoryExperimentStore()
		notifier := &captureNotifier{}
		resolver := experiments.New(store, notifier)
		ctx := context.Background()

		seedExperiment(ctx, store, model.ExperimentActive)
		seedVariants(ctx, store, 40, 60)

		Convey("When evaluated", func() {
			ev, err := resolver.Evaluate(ctx, "exp-1")
			So(err, ShouldBeNil)

			Convey("Then variant B is declared significant", func() {
				So(ev.IsSignificant, ShouldBeTrue)
				So(ev.Winner, ShouldEqual, model.VariantB)
				So(ev.ConfidenceLevel, ShouldEqual, 95.0)
				So(ev.Improvement, ShouldAlmostEqual, 50.0, 0.001)
				So(ev.AlreadyCompleted, ShouldBeFalse)
			})

			Convey("And the experiment completes atomically with the decision", func() {
				def, err := store.GetDefinition(ctx, "exp-1")
				So(err, ShouldBeNil)
				So(def.Status, ShouldEqual, model.ExperimentCompleted)
				So(def.WinnerVariant, ShouldEqual, model.VariantB)
				So(def.CompletedAt, ShouldNotBeNil)
			})

			Convey("And the winner notification fires once", func() {
				So(notifier.keys["experiment:exp-1:winner"], ShouldEqual, 1)
			})

			Convey("And re-evaluation returns the stored decision untouched", func() {
				again, err := resolver.Evaluate(ctx, "exp-1")
				So(err, ShouldBeNil)
				So(again.AlreadyCompleted, ShouldBeTrue)
				So(again.Winner, ShouldEqual, model.VariantB)
				So(notifier.keys["experiment:exp-1:winner"], ShouldEqual, 1)
			})
		})
	})

	Convey("Given an active experiment without a significant difference", t, func() {
		store := repository.NewInMemoryExperimentStore()
		notifier := &captureNotifier{}
		resolver := experiments.New(store, notifier)
		ctx := context.Background()

		seedExperiment(ctx, store, model.ExperimentActive)
		seedVariants(ctx, store, 50, 52)

		Convey("When evaluated", func() {
			ev, err := resolver.Evaluate(ctx, "exp-1")
			So(err, ShouldBeNil)

			Convey("Then the experiment stays active with no winner", func() {
				So(ev.IsSignificant, ShouldBeFalse)
				So(ev.Winner, ShouldEqual, model.Variant(""))

				def, _ := store.GetDefinition(ctx, "exp-1")
				So(def.Status, ShouldEqual, model.ExperimentActive)
			})

			Convey("And no notification fires", func() {
				So(len(notifier.keys), ShouldEqual, 0)
			})
		})
	})

	Convey("Given undersized samples", t, func() {
		store := repository.NewInMemoryExperimentStore()
		resolver := experiments.New(store, &captureNotifier{})
		ctx := context.Background()

		seedExperiment(ctx, store, model.ExperimentActive)
		for _, res := range []model.ExperimentVariantResult{
			{ExperimentID: "exp-1", Variant: model.VariantA, Sent: 10, Opened: 9},
			{ExperimentID: "exp-1", Variant: model.VariantB, Sent: 10, Opened: 1},
		} {
			So(store.PutVariantResult(ctx, res), ShouldBeNil)
		}

		Convey("When evaluated", func() {
			ev, err := resolver.Evaluate(ctx, "exp-1")
			So(err, ShouldBeNil)

			Convey("Then even a large gap stays not significant", func() {
				So(ev.IsSignificant, ShouldBeFalse)
			})
		})
	})

	Convey("Given a draft experiment", t, func() {
		store := repository.NewInMemoryExperimentStore()
		resolver := experiments.New(store, &captureNotifier{})
		ctx := context.Background()

		seedExperiment(ctx, store, model.ExperimentDraft)

		Convey("When evaluated", func() {
			_, err := resolver.Evaluate(ctx, "exp-1")

			Convey("Then the status conflict surfaces", func() {
				So(errors.Is(err, repository.ErrStatusConflict), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown experiment", t, func() {
		store := repository.NewInMemoryExperimentStore()
		resolver := experiments.New(store, &captureNotifier{})
		ctx := context.Background()

		Convey("When evaluated", func() {
			_, err := resolver.Evaluate(ctx, "missing")

			Convey("Then not found surfaces", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestResolver_Lifecycle(t *testing.T) {
	Convey("Given a draft experiment", t, func() {
		store := repository.NewInMemoryExperimentStore()
		resolver := experiments.New(store, &captureNotifier{})
		ctx := context.Background()

		seedExperiment(ctx, store, model.ExperimentDraft)

		Convey("When started, paused and resumed", func() {
			So(resolver.Start(ctx, "exp-1"), ShouldBeNil)
			So(resolver.Pause(ctx, "exp-1"), ShouldBeNil)
			So(resolver.Resume(ctx, "exp-1"), ShouldBeNil)

			Convey("Then the experiment ends up active", func() {
				def, _ := store.GetDefinition(ctx, "exp-1")
				So(def.Status, ShouldEqual, model.ExperimentActive)
			})
		})

		Convey("When pausing before starting", func() {
			err := resolver.Pause(ctx, "exp-1")

			Convey("Then the invalid transition conflicts", func() {
				So(errors.Is(err, repository.ErrStatusConflict), ShouldBeTrue)
			})
		})

		Convey("When starting twice", func() {
			So(resolver.Start(ctx, "exp-1"), ShouldBeNil)
			err := resolver.Start(ctx, "exp-1")

			Convey("Then the second start conflicts", func() {
				So(errors.Is(err, repository.ErrStatusConflict), ShouldBeTrue)
			})
		})
	})
}
