package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/damdice/internal/adapters/feed"
	service "github.com/okian/damdice/internal/app"
	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pipeline"
)

type fakeDeps struct {
	res pipeline.Results
	err error
}

func (f fakeDeps) Results(context.Context) (pipeline.Results, error) {
	return f.res, f.err
}

func results(t *testing.T) pipeline.Results {
	t.Helper()
	subs := []model.Submission{
		{Row: 1, Timestamp: "02/10/2026 18:01:00", Name: "Cy", Surname: "Smit", Category: "10 km", Duration: "00:31:00", Doubles: "No", HasDoubles: true},
		{Row: 2, Timestamp: "02/10/2026 18:02:00", Name: "Ana", Surname: "Botha", Category: "10 km", Duration: "00:28:00", Doubles: "No", HasDoubles: true},
		{Row: 3, Timestamp: "02/10/2026 18:03:00", Name: "Bo", Surname: "Nel", Category: "10 km", Duration: "00:28:00", Doubles: "Yes", HasDoubles: true},
		{Row: 4, Timestamp: "02/17/2026 18:00:00", Name: "Ana", Surname: "Botha", Category: "10 km", Duration: "00:27:30", Doubles: "No", HasDoubles: true},
		{Row: 5, Timestamp: "02/17/2026 18:05:00", Name: "Di", Surname: "Venter", Category: "5 km", Duration: "0:15", Doubles: "No", HasDoubles: true},
	}
	res, err := pipeline.Transform(context.Background(), subs, pipeline.Options{
		FeedDigest: "abc",
		Now:        func() time.Time { return time.Date(2026, time.February, 18, 7, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	return res
}

func get(mux http.Handler, path string) (*httptest.ResponseRecorder, *goquery.Document) {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	So(err, ShouldBeNil)
	return w, doc
}

func cells(s *goquery.Selection) []string {
	return s.Map(func(_ int, c *goquery.Selection) string {
		return strings.TrimSpace(c.Text())
	})
}

func TestPages(t *testing.T) {
	Convey("Given the site over computed results", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		Register(ctx, mux, fakeDeps{res: results(t)})

		Convey("When the main page is requested", func() {
			w, doc := get(mux, "/")

			Convey("Then it renders both dice tables, 10 km first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(doc.Find("h1").Text(), ShouldEqual, "Dam Dice Results")
				So(cells(doc.Find("caption")), ShouldResemble, []string{"10 km dice", "5 km dice"})
			})

			Convey("Then the 10 km table lists durations per race", func() {
				table := doc.Find("table").First()
				So(cells(table.Find("thead th")), ShouldResemble, []string{"Name", "Surname", "10/02", "17/02"})
				rows := table.Find("tbody tr")
				So(rows.Length(), ShouldEqual, 3)
				So(cells(rows.Eq(0).Find("td")), ShouldResemble, []string{"Ana", "Botha", "0:28:00", "0:27:30"})
				So(cells(rows.Eq(2).Find("td")), ShouldResemble, []string{"Cy", "Smit", "0:31:00", ""})
			})

			Convey("Then the empty 5 km table says so", func() {
				So(strings.TrimSpace(doc.Find("table").Last().Find("tr.empty").Text()), ShouldEqual, "No results yet")
			})

			Convey("Then the nav marks the current page", func() {
				So(cells(doc.Find("nav a")), ShouldResemble, []string{"Main", "Yster", "Bobaas", "Download workbook"})
				So(strings.TrimSpace(doc.Find("nav a.active").Text()), ShouldEqual, "Main")
			})

			Convey("Then the skipped row is listed in the footer", func() {
				items := doc.Find("footer .rejected li")
				So(items.Length(), ShouldEqual, 1)
				row, _ := items.Attr("data-row")
				So(row, ShouldEqual, "5")
			})
		})

		Convey("When the yster page is requested", func() {
			w, doc := get(mux, "/yster")

			Convey("Then times and race counts are shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("h1").Text(), ShouldEqual, "Yster Competition")
				table := doc.Find("table").First()
				So(strings.TrimSpace(table.Find("caption").Text()), ShouldEqual, "10 km Yster")
				So(cells(table.Find("thead th")), ShouldResemble, []string{"Name", "Surname", "10/02", "17/02", "Races"})
				So(cells(table.Find("tbody tr").Eq(0).Find("td")), ShouldResemble, []string{"Ana", "Botha", "0:28:00", "0:27:30", "2"})
				So(cells(table.Find("tbody tr").Eq(2).Find("td")), ShouldResemble, []string{"Cy", "Smit", "0:31:00", "", "1"})
			})
		})

		Convey("When the bobaas page is requested", func() {
			w, doc := get(mux, "/bobaas")

			Convey("Then scores and totals are shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(doc.Find("h1").Text(), ShouldEqual, "Bobaas Competition")
				table := doc.Find("table").First()
				So(cells(table.Find("thead th")), ShouldResemble, []string{"Name", "Surname", "10/02", "17/02", "Total"})
				So(cells(table.Find("tbody tr").Eq(0).Find("td")), ShouldResemble, []string{"Ana", "Botha", "1", "1", "197"})
			})
		})

		Convey("When an unknown page is requested", func() {
			w, doc := get(mux, "/podium")

			Convey("Then a not found page is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				status, _ := doc.Find("p.error").Attr("data-status")
				So(status, ShouldEqual, "404")
				So(doc.Find("nav a.active").Length(), ShouldEqual, 0)
			})
		})

		Convey("When the stylesheet is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/static/site.css", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is served from the embedded assets", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})
		})

		Convey("When a page is posted to", func() {
			req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the method is refused", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		text   string
	}{
		{"feed down", feed.ErrSourceUnavailable, http.StatusBadGateway, "could not be read"},
		{"broken row", &model.RowError{Row: 7, Err: model.ErrUnknownCategory}, http.StatusBadGateway, "row 7"},
		{"not started", service.ErrNotStarted, http.StatusServiceUnavailable, "not available yet"},
		{"other", context.Canceled, http.StatusInternalServerError, "went wrong"},
	}

	Convey("Given the site over a failing run", t, func() {
		for _, tc := range cases {
			mux := http.NewServeMux()
			Register(context.Background(), mux, fakeDeps{err: tc.err})
			w, doc := get(mux, "/yster")

			So(w.Code, ShouldEqual, tc.status)
			So(doc.Find("h1").Text(), ShouldEqual, "Yster Competition")
			So(doc.Find("p.error").Text(), ShouldContainSubstring, tc.text)
			So(doc.Find("table").Length(), ShouldEqual, 0)
		}
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() {
				Register(context.Background(), nil, fakeDeps{})
			}, ShouldPanic)
		})
	})
}
