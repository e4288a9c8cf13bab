package service_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/damdice/internal/adapters/feed"
	service "github.com/okian/damdice/internal/app"
	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/samplefeed"
)

func TestServiceIntegration_SampleFeed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := samplefeed.DefaultConfig()
	cfg.BadRows = true
	srv := httptest.NewServer(samplefeed.Handler(cfg, nil))
	defer srv.Close()

	for _, format := range []feed.Format{feed.FormatCSV, feed.FormatXLSX} {
		Convey("Given the service reading the "+string(format)+" sample feed over HTTP", t, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			src := feed.NewSheetSource(srv.URL+"/export?format="+string(format), feed.WithFormat(format))
			svc := service.New(src, service.WithCacheTTL(time.Minute))
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			res, err := svc.Results(ctx)
			So(err, ShouldBeNil)

			Convey("Then every table is built", func() {
				for _, c := range model.Categories() {
					So(len(res.Main[c].Rows), ShouldBeGreaterThan, 0)
					So(len(res.Yster[c].Columns), ShouldEqual, len(res.Main[c].Columns)+1)
					So(len(res.Bobaas[c].Columns), ShouldEqual, len(res.Main[c].Columns)+1)
				}
				So(len(res.Rejected), ShouldEqual, 2)
				So(res.FeedDigest, ShouldNotBeEmpty)
			})

			Convey("Then every race has a winner", func() {
				for _, c := range model.Categories() {
					winners := map[string]bool{}
					for _, r := range res.Records[c] {
						if r.Rank == 1 {
							winners[r.Race.Key()] = true
						}
					}
					So(len(winners), ShouldEqual, len(res.Main[c].Columns))
				}
			})
		})
	}
}
