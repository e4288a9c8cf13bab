// Package pipeline turns a feed snapshot into every derived results table.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/ranking"
	"github.com/okian/damdice/internal/domain/table"
	"github.com/okian/damdice/internal/domain/timing"
	"github.com/okian/damdice/pkg/logger"
)

// Derived column names.
const (
	RacesColumn = "Races"
	TotalColumn = "Total"
)

// Options tunes a single run.
type Options struct {
	// YearAwareRaces keys races by dd/mm/yyyy instead of dd/mm.
	YearAwareRaces bool
	// Baseline and Cap parameterise the Bobaas total. Zero means the default.
	Baseline int
	Cap      int
	// FeedDigest identifies the snapshot the submissions were read from.
	FeedDigest string
	// Now stamps GeneratedAt. Defaults to time.Now.
	Now    func() time.Time
	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Baseline == 0 {
		o.Baseline = ranking.DefaultBaseline
	}
	if o.Cap == 0 {
		o.Cap = ranking.DefaultCap
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// Results is the full output of one run. Every map has an entry for both
// categories.
type Results struct {
	RunID       string                                 `json:"runId"`
	FeedDigest  string                                 `json:"feedDigest"`
	GeneratedAt time.Time                              `json:"generatedAt"`
	Records     map[model.Category][]model.RaceRecord `json:"-"`
	Main        map[model.Category]table.Table         `json:"main"`
	Yster       map[model.Category]table.Table         `json:"yster"`
	Bobaas      map[model.Category]table.Table         `json:"bobaas"`
	Rejected    []model.Rejection                      `json:"rejected"`
	Duplicates  int                                    `json:"duplicates"`
}

// Transform cleans, ranks, scores and pivots submissions.
//
// A malformed timestamp or an unknown category aborts the run with a
// *model.RowError. A malformed time or doubles answer only drops that row;
// it is logged and listed in Results.Rejected.
func Transform(ctx context.Context, submissions []model.Submission, opts Options) (Results, error) {
	if err := ctx.Err(); err != nil {
		return Results{}, err
	}
	opts = opts.withDefaults()
	log := opts.Logger

	var (
		records  []model.RaceRecord
		rejected []model.Rejection
	)
	for _, s := range submissions {
		r, err := clean(s, opts.YearAwareRaces)
		if err == nil {
			records = append(records, r)
			continue
		}
		var rowErr *model.RowError
		if errors.As(err, &rowErr) && recoverable(rowErr.Err) {
			log.Warn(ctx, "skipping submission",
				logger.Int("row", s.Row),
				logger.String("kind", model.Kind(rowErr.Err)),
				logger.Error(rowErr.Err),
			)
			rejected = append(rejected, model.NewRejection(s.Row, rowErr.Err))
			continue
		}
		return Results{}, err
	}

	records, dropped := ranking.KeepFastest(records)
	for _, d := range dropped {
		log.Debug(ctx, "collapsed repeated submission",
			logger.Int("row", d.Row),
			logger.String("name", d.Paddler.Name),
			logger.String("surname", d.Paddler.Surname),
			logger.String("race", d.Race.Label()),
		)
	}

	res := Results{
		RunID:       uuid.NewString(),
		FeedDigest:  opts.FeedDigest,
		GeneratedAt: opts.Now(),
		Records:     make(map[model.Category][]model.RaceRecord, 2),
		Main:        make(map[model.Category]table.Table, 2),
		Yster:       make(map[model.Category]table.Table, 2),
		Bobaas:      make(map[model.Category]table.Table, 2),
		Rejected:    rejected,
		Duplicates:  len(dropped),
	}
	for category, bucket := range ranking.Partition(records) {
		ranked := ranking.Sort(ranking.DenseRank(bucket))
		times := table.Pivot(category, ranked, table.ByDuration)

		res.Records[category] = ranked
		res.Main[category] = times
		res.Yster[category] = table.WithCount(times, RacesColumn)
		res.Bobaas[category] = table.WithTotal(
			table.Pivot(category, ranked, table.ByScore), TotalColumn, opts.Baseline, opts.Cap)
	}

	log.Info(ctx, "results computed",
		logger.String("run_id", res.RunID),
		logger.Int("submissions", len(submissions)),
		logger.Int("records", len(records)),
		logger.Int("rejected", len(rejected)),
		logger.Int("duplicates", len(dropped)),
		logger.Any("categories", res.Summary()),
	)
	return res, nil
}

// clean parses one submission. Fatal checks run first so a row that is
// structurally broken always aborts, even when its time is also bad.
func clean(s model.Submission, yearAware bool) (model.RaceRecord, error) {
	ts, err := timing.ParseTimestamp(s.Timestamp)
	if err != nil {
		return model.RaceRecord{}, &model.RowError{Row: s.Row, Err: err}
	}
	category, err := model.ParseCategory(s.Category)
	if err != nil {
		return model.RaceRecord{}, &model.RowError{Row: s.Row, Err: err}
	}
	d, err := timing.ParseDuration(s.Duration)
	if err != nil {
		return model.RaceRecord{}, &model.RowError{Row: s.Row, Err: err}
	}
	doubles := 0
	if s.HasDoubles {
		if doubles, err = timing.ParseDoubles(s.Doubles); err != nil {
			return model.RaceRecord{}, &model.RowError{Row: s.Row, Err: err}
		}
	}
	return model.RaceRecord{
		Row:      s.Row,
		Paddler:  model.Paddler{Name: s.Name, Surname: s.Surname},
		Race:     model.NewRaceDate(ts, yearAware),
		Category: category,
		Duration: d,
		Doubles:  doubles,
	}, nil
}

func recoverable(err error) bool {
	return errors.Is(err, model.ErrMalformedDuration) || errors.Is(err, model.ErrUnknownDoublesFlag)
}

// Stats summarises a run per category.
type Stats struct {
	Records  int `json:"records"`
	Races    int `json:"races"`
	Paddlers int `json:"paddlers"`
}

// Summary returns record, race and paddler counts per category.
func (r Results) Summary() map[model.Category]Stats {
	out := make(map[model.Category]Stats, len(r.Main))
	for category, t := range r.Main {
		out[category] = Stats{
			Records:  len(r.Records[category]),
			Races:    len(t.Races),
			Paddlers: len(t.Rows),
		}
	}
	return out
}
