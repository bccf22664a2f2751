package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/okian/devstats/internal/app"
	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/pipeline"
	"github.com/okian/devstats/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over the embedded dataset", t, func() {
		svc := service.New()
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When querying Europe 2000-2005 GDP", func() {
			q := pipeline.Query{
				Continents: pipeline.NormalizeContinents("Europe"),
				Years:      pipeline.YearRange{From: 2000, To: 2005},
				Indicator:  model.GDP,
			}
			views, err := svc.Views(ctx, q, 0)
			So(err, ShouldBeNil)

			Convey("Then every series is European and within range", func() {
				So(len(views.TimeSeries.Series), ShouldBeGreaterThan, 0)
				for _, s := range views.TimeSeries.Series {
					So(s.Continent, ShouldEqual, "Europe")
					for _, p := range s.Points {
						So(p.Year, ShouldBeBetweenOrEqual, 2000, 2005)
					}
				}
			})

			Convey("And the top view holds three countries in descending order", func() {
				So(len(views.Top.Entries), ShouldEqual, 3)
				for i := 1; i < len(views.Top.Entries); i++ {
					So(views.Top.Entries[i].Value, ShouldBeLessThanOrEqualTo, views.Top.Entries[i-1].Value)
				}
			})

			Convey("And the histogram counts every filtered row", func() {
				So(views.Histogram.Count, ShouldEqual, views.TimeSeries.Rows)
				binned := 0
				for _, b := range views.Histogram.Bins {
					binned += b.Count
				}
				So(binned+views.Histogram.Missing, ShouldEqual, views.Histogram.Count)
			})
		})

		Convey("When querying Asia for the single year 1990", func() {
			q := pipeline.Query{
				Continents: pipeline.NormalizeContinents("Asia"),
				Years:      pipeline.YearRange{From: 1990, To: 1990},
				Indicator:  model.Population,
			}
			views, err := svc.Views(ctx, q, 0)

			Convey("Then every view reflects only 1990", func() {
				So(err, ShouldBeNil)
				for _, s := range views.TimeSeries.Series {
					So(len(s.Points), ShouldEqual, 1)
					So(s.Points[0].Year, ShouldEqual, 1990)
				}
				So(views.Histogram.Count, ShouldEqual, len(views.TimeSeries.Series))
			})
		})

		Convey("When the continent set is empty", func() {
			q := pipeline.Query{Years: pipeline.YearRange{From: 1990, To: 2015}, Indicator: model.Schooling}
			views, err := svc.Views(ctx, q, 0)

			Convey("Then all views are empty without an error", func() {
				So(err, ShouldBeNil)
				So(views.TimeSeries.Series, ShouldBeEmpty)
				So(views.Top.Entries, ShouldBeEmpty)
				So(views.Histogram.Count, ShouldEqual, 0)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service shared by many goroutines", t, func() {
		svc := service.New()
		defer svc.Stop()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		queries := []pipeline.Query{
			{Continents: pipeline.NormalizeContinents("Europe"), Years: pipeline.YearRange{From: 2000, To: 2005}, Indicator: model.GDP},
			{Continents: pipeline.NormalizeContinents("Asia"), Years: pipeline.YearRange{From: 1990, To: 1990}, Indicator: model.Population},
			{Continents: pipeline.NormalizeContinents("Africa", "Oceania"), Years: pipeline.YearRange{From: 1995, To: 2010}, Indicator: model.LifeExpectancy},
		}

		want := make([]types.Views, len(queries))
		for i, q := range queries {
			v, err := svc.Views(ctx, q, 0)
			So(err, ShouldBeNil)
			want[i] = v
		}

		Convey("When the same selections run concurrently", func() {
			const workers = 16
			var wg sync.WaitGroup
			got := make([][]types.Views, workers)
			errs := make(chan error, workers*len(queries))
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for _, q := range queries {
						v, err := svc.Views(ctx, q, 0)
						if err != nil {
							errs <- err
							continue
						}
						got[w] = append(got[w], v)
					}
				}(w)
			}
			wg.Wait()
			close(errs)

			Convey("Then every result matches the sequential one", func() {
				So(len(errs), ShouldEqual, 0)
				for w := 0; w < workers; w++ {
					So(got[w], ShouldResemble, want)
				}
			})
		})
	})
}
