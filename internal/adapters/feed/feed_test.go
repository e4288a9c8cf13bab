package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/damdice/internal/adapters/feed"
)

const currentCSV = "\uFEFFTimestamp,Did you do doubles?,Name,Surname,Did you do short or long dice?,Please submit your time\n" +
	"02/10/2026 18:01:00,No,Joa,Theron,5 km,00:30:00\n" +
	"\n" +
	"02/10/2026 18:02:00,Yes,Josh,Glyn-Cuthbert,10 km,00:48:00\n"

const legacyCSV = "Timestamp,Name,Surname,Did you do short or long dice?,Please submit your time\n" +
	"02/10/2025 18:01:00,Stefan,Erlank,10 km,00:51:00\n"

func serve(status int, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

func TestSheetSourceCSV(t *testing.T) {
	convey.Convey("Given a CSV export", t, func() {
		ctx := context.Background()

		convey.Convey("When the sheet has the doubles column", func() {
			srv := serve(http.StatusOK, []byte(currentCSV))
			defer srv.Close()

			snap, err := feed.NewSheetSource(srv.URL).Fetch(ctx)

			convey.Convey("Then rows are mapped by header", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Legacy, convey.ShouldBeFalse)
				convey.So(len(snap.Submissions), convey.ShouldEqual, 2)

				first := snap.Submissions[0]
				convey.So(first.Row, convey.ShouldEqual, 2)
				convey.So(first.Timestamp, convey.ShouldEqual, "02/10/2026 18:01:00")
				convey.So(first.Name, convey.ShouldEqual, "Joa")
				convey.So(first.Surname, convey.ShouldEqual, "Theron")
				convey.So(first.Category, convey.ShouldEqual, "5 km")
				convey.So(first.Duration, convey.ShouldEqual, "00:30:00")
				convey.So(first.Doubles, convey.ShouldEqual, "No")
				convey.So(first.HasDoubles, convey.ShouldBeTrue)
				convey.So(snap.Submissions[1].Doubles, convey.ShouldEqual, "Yes")
				convey.So(snap.Submissions[1].Row, convey.ShouldEqual, 3)
			})

			convey.Convey("Then the snapshot is fingerprinted", func() {
				convey.So(snap.Digest, convey.ShouldEqual, feed.Digest([]byte(currentCSV)))
				convey.So(len(snap.Digest), convey.ShouldEqual, 16)
				convey.So(snap.FetchedAt.IsZero(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the sheet is the legacy layout", func() {
			srv := serve(http.StatusOK, []byte(legacyCSV))
			defer srv.Close()

			snap, err := feed.NewSheetSource(srv.URL).Fetch(ctx)

			convey.Convey("Then doubles are absent rather than invented", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Legacy, convey.ShouldBeTrue)
				convey.So(snap.Submissions[0].HasDoubles, convey.ShouldBeFalse)
				convey.So(snap.Submissions[0].Doubles, convey.ShouldEqual, "")
			})
		})
	})
}

func TestSheetSourceFailures(t *testing.T) {
	convey.Convey("Given a broken feed", t, func() {
		ctx := context.Background()

		convey.Convey("When the server errors", func() {
			srv := serve(http.StatusInternalServerError, nil)
			defer srv.Close()
			_, err := feed.NewSheetSource(srv.URL).Fetch(ctx)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
		})

		convey.Convey("When a required column is missing", func() {
			srv := serve(http.StatusOK, []byte("Timestamp,Name\n02/10/2026 18:01:00,Joa\n"))
			defer srv.Close()
			_, err := feed.NewSheetSource(srv.URL).Fetch(ctx)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
			convey.So(errors.Is(err, feed.ErrMissingColumn), convey.ShouldBeTrue)
		})

		convey.Convey("When a row has the wrong number of columns", func() {
			srv := serve(http.StatusOK, []byte(legacyCSV+"02/10/2025 18:01:00,Conrad\n"))
			defer srv.Close()
			_, err := feed.NewSheetSource(srv.URL).Fetch(ctx)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
		})

		convey.Convey("When the server is too slow", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer srv.Close()
			_, err := feed.NewSheetSource(srv.URL, feed.WithTimeout(50*time.Millisecond)).Fetch(ctx)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
		})

		convey.Convey("When nothing listens", func() {
			_, err := feed.NewSheetSource("http://127.0.0.1:1/export").Fetch(ctx)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
		})

		convey.Convey("When the format is unknown", func() {
			_, err := feed.Decode([]byte(legacyCSV), feed.Format("ods"))
			convey.So(errors.Is(err, feed.ErrUnsupportedFormat), convey.ShouldBeTrue)
			convey.So(errors.Is(err, feed.ErrSourceUnavailable), convey.ShouldBeTrue)
		})
	})
}

func TestSheetSourceXLSX(t *testing.T) {
	convey.Convey("Given an XLSX export", t, func() {
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		// Sheet row 3 is left empty.
		rows := map[int][]any{
			1: {"Timestamp", "Did you do doubles?", "Name", "Surname", "Did you do short or long dice?", "Please submit your time"},
			2: {"02/22/2026 10:10:10", "No", "Barry", "Muller", "5 km", "00:42:00"},
			4: {"02/22/2026 10:10:11", "", "Tayla", "Isaac", "10 km", "01:02:00"},
		}
		for n, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, n)
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.SetSheetRow(sheet, cell, &row), convey.ShouldBeNil)
		}
		buf, err := f.WriteToBuffer()
		convey.So(err, convey.ShouldBeNil)

		srv := serve(http.StatusOK, buf.Bytes())
		defer srv.Close()

		snap, err := feed.NewSheetSource(srv.URL, feed.WithFormat(feed.FormatXLSX)).Fetch(context.Background())

		convey.Convey("Then the first sheet is read like the CSV export", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(snap.Format, convey.ShouldEqual, feed.FormatXLSX)
			convey.So(len(snap.Submissions), convey.ShouldEqual, 2)
			convey.So(snap.Submissions[0].Name, convey.ShouldEqual, "Barry")
			convey.So(snap.Submissions[0].Duration, convey.ShouldEqual, "00:42:00")
			convey.So(snap.Submissions[1].Doubles, convey.ShouldEqual, "")
			convey.So(snap.Submissions[1].Category, convey.ShouldEqual, "10 km")
		})

		convey.Convey("Then rows are numbered as the spreadsheet shows them", func() {
			convey.So(snap.Submissions[0].Row, convey.ShouldEqual, 2)
			convey.So(snap.Submissions[1].Row, convey.ShouldEqual, 4)
		})
	})
}
