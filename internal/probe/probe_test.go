package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/internal/adapters/http/api"
	"github.com/okian/devstats/internal/adapters/repository"
	service "github.com/okian/devstats/internal/app"
	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/types"
	"github.com/okian/devstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	store, err := repository.LoadSample(ctx)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	svc := service.New(service.WithStore(store))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions() types.Options {
	return types.Options{
		Continents: []string{"Africa", "Asia", "Europe"},
		MinYear:    1990,
		MaxYear:    2015,
		Indicators: []types.IndicatorOption{
			{Key: "gdp", Label: "GDP"},
			{Key: "population", Label: "Population"},
		},
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator over known options", t, func() {
		opts := testOptions()

		Convey("When selections are generated", func() {
			sels := newGenerator(7, opts).generateSelections(300)

			Convey("Then every selection stays within the option bounds", func() {
				So(len(sels), ShouldEqual, 300)
				known := map[string]bool{"Africa": true, "Asia": true, "Europe": true}
				for _, s := range sels {
					So(s.Continents, ShouldNotBeNil)
					for _, c := range s.Continents {
						So(known[c], ShouldBeTrue)
					}
					So(s.From, ShouldBeBetweenOrEqual, opts.MinYear, opts.MaxYear)
					So(s.To, ShouldBeBetweenOrEqual, opts.MinYear, opts.MaxYear)
					So(s.Indicator, ShouldBeIn, "GDP", "Population")
				}
			})

			Convey("And the edge cases come first", func() {
				So(sels[0].Continents, ShouldResemble, opts.Continents)
				So(sels[1].Continents, ShouldBeEmpty)
				So(sels[2].From, ShouldBeGreaterThan, sels[2].To)
				So(sels[3].From, ShouldEqual, sels[3].To)
			})
		})

		Convey("When the same seed is used twice", func() {
			a := newGenerator(42, opts).generateSelections(50)
			b := newGenerator(42, opts).generateSelections(50)

			Convey("Then the selections are identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When fewer selections than edge cases are requested", func() {
			sels := newGenerator(1, opts).generateSelections(2)

			Convey("Then only that many are returned", func() {
				So(len(sels), ShouldEqual, 2)
			})
		})
	})
}

func TestVerifyViews(t *testing.T) {
	Convey("Given a selection and a consistent response", t, func() {
		sel := Selection{Continents: []string{"Europe"}, From: 2000, To: 2001, Indicator: "GDP"}
		views := types.Views{
			Selection: types.Selection{Continents: []string{"Europe"}, From: 2000, To: 2001, Indicator: model.GDP},
			TimeSeries: types.TimeSeries{Rows: 3, Series: []types.Series{
				{Country: "Germany", Continent: "Europe", Points: []types.Point{{Year: 2000, Value: 3}, {Year: 2001, Value: 4}}},
				{Country: "France", Continent: "Europe", Points: []types.Point{{Year: 2000, Value: 2}}},
			}},
			Top: types.TopCountries{Entries: []types.Entry{
				{Rank: 1, Country: "Germany", Continent: "Europe", Value: 7},
				{Rank: 2, Country: "France", Continent: "Europe", Value: 2},
			}},
			Histogram: types.Histogram{
				Count:   3,
				Values:  []float64{3, 4, 2},
				Bins:    []types.Bin{{Lower: 2, Upper: 3, Count: 1}, {Lower: 3, Upper: 4, Count: 2}},
				Missing: 0,
			},
		}

		Convey("Then no violations are reported", func() {
			So(verifyViews(sel, 3, views), ShouldBeEmpty)
		})

		Convey("When a series leaks another continent", func() {
			views.TimeSeries.Series[1].Continent = "Asia"

			Convey("Then it is flagged", func() {
				So(verifyViews(sel, 3, views), ShouldNotBeEmpty)
			})
		})

		Convey("When a point falls outside the year range", func() {
			views.TimeSeries.Series[0].Points[1].Year = 2005

			Convey("Then it is flagged", func() {
				So(verifyViews(sel, 3, views), ShouldNotBeEmpty)
			})
		})

		Convey("When the top entries are out of order", func() {
			views.Top.Entries[0].Value, views.Top.Entries[1].Value = 2, 7

			Convey("Then it is flagged", func() {
				So(verifyViews(sel, 3, views), ShouldNotBeEmpty)
			})
		})

		Convey("When the top view exceeds its limit", func() {
			So(verifyViews(sel, 1, views), ShouldNotBeEmpty)
		})

		Convey("When histogram counts disagree", func() {
			views.Histogram.Count = 4

			Convey("Then both count checks fail", func() {
				So(len(verifyViews(sel, 3, views)), ShouldEqual, 2)
			})
		})

		Convey("When the selection is empty but rows come back", func() {
			sel.Continents = []string{}

			Convey("Then it is flagged", func() {
				So(verifyViews(sel, 3, views), ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given two encodings of the same selection", t, func() {
		a := types.Views{Top: types.TopCountries{Entries: []types.Entry{{Country: "Japan", Value: 1}}}}
		b := a
		So(verifyEquivalent("query", a, b), ShouldBeEmpty)

		b.Top = types.TopCountries{Entries: []types.Entry{{Country: "China", Value: 1}}}
		So(verifyEquivalent("query", a, b), ShouldNotBeEmpty)
	})
}

func TestRunAgainstServer(t *testing.T) {
	Convey("Given a server over the embedded dataset", t, func() {
		srv := newTestServer(t)
		report := filepath.Join(t.TempDir(), "out", "report.json")

		Convey("When the probe runs", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:    srv.URL,
				Selections: 60,
				Workers:    4,
				Seed:       11,
				OutputFile: report,
			})

			Convey("Then every selection passes", func() {
				So(err, ShouldBeNil)
				So(stats.SelectionsGenerated, ShouldEqual, 60)
				So(stats.SelectionsPassed, ShouldEqual, 60)
				So(stats.SelectionsFailed, ShouldEqual, 0)
				So(stats.EmptySelections, ShouldBeGreaterThanOrEqualTo, 2)
				So(stats.RequestsSent, ShouldBeGreaterThanOrEqualTo, 120)
			})

			Convey("And the report lists every selection", func() {
				data, err := os.ReadFile(report)
				So(err, ShouldBeNil)
				var r Report
				So(json.Unmarshal(data, &r), ShouldBeNil)
				So(len(r.Results), ShouldEqual, 60)
				So(r.Seed, ShouldEqual, uint64(11))
				So(r.Options.Continents, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given a server that answers health checks but misbehaves", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/api/options", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(testOptions())
		})
		mux.HandleFunc("/api/views", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When the probe runs", func() {
			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Selections: 5, Workers: 2, Seed: 3})

			Convey("Then it reports request failures", func() {
				So(errors.Is(err, ErrVerificationFailed), ShouldBeTrue)
				So(stats.RequestErrors, ShouldEqual, 5)
			})
		})
	})

	Convey("Given no server at all", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, Selections: 1, Timeout: 1e9})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
