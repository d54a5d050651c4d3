// Package dashboard builds request-scoped view models from an uploaded archive.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/aggregate"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/ingest"
	"github.com/sells-group/postings-dashboard/internal/model"
	"github.com/sells-group/postings-dashboard/internal/occupation"
)

// NoCSVsMessage is shown when an archive has no qualifying CSV entries.
const NoCSVsMessage = "No CSVs found in the archive."

// Entry outcomes reported to the Recorder.
const (
	OutcomeLoaded       = "loaded"
	OutcomeEmpty        = "empty"
	OutcomeParseError   = "parse_error"
	OutcomeUnclassified = "unclassified"
	OutcomeNoLabel      = "no_label"
)

// Recorder observes pipeline outcomes, e.g. for metrics.
type Recorder interface {
	ArchiveLoaded(kind fetcher.ArchiveKind, err error)
	EntryProcessed(outcome string)
	NoticeRaised(kind model.NoticeKind)
}

type nopRecorder struct{}

func (nopRecorder) ArchiveLoaded(fetcher.ArchiveKind, error) {}
func (nopRecorder) EntryProcessed(string)                    {}
func (nopRecorder) NoticeRaised(model.NoticeKind)            {}

// Options configures a Builder.
type Options struct {
	Rules      occupation.RuleSet
	ChartLimit int
	Recorder   Recorder
}

// Builder runs the enumerate → normalize → aggregate pipeline. It holds no
// per-request state and is safe to share.
type Builder struct {
	normalizer *ingest.Normalizer
	chartLimit int
	recorder   Recorder
}

// New creates a Builder. Zero-valued options fall back to the current label
// rules, the default chart limit and no metrics.
func New(opts Options) *Builder {
	if opts.Rules.Version == "" {
		opts.Rules = occupation.Current
	}
	if opts.ChartLimit <= 0 {
		opts.ChartLimit = aggregate.DefaultChartLimit
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Builder{
		normalizer: ingest.NewNormalizer(opts.Rules),
		chartLimit: opts.ChartLimit,
		recorder:   opts.Recorder,
	}
}

// Dataset is the normalized content of one archive.
type Dataset struct {
	Tables  []*model.Table
	Entries int // qualifying CSV entries in the archive
	Notices []model.Notice

	chartLimit int
	recorder   Recorder
}

func (d *Dataset) notice(n model.Notice) {
	d.Notices = append(d.Notices, n)
	d.recorder.NoticeRaised(n.Kind)
}

// Load enumerates and normalizes every CSV entry of archive. Only an
// unreadable archive fails the call; unparseable and unclassified entries
// are skipped with a notice.
func (b *Builder) Load(ctx context.Context, archive []byte) (*Dataset, error) {
	kind := fetcher.Sniff(archive)
	entries, err := fetcher.Enumerate(ctx, archive)
	b.recorder.ArchiveLoaded(kind, err)
	if err != nil {
		if model.IsArchiveFormat(err) {
			return nil, err
		}
		return nil, eris.Wrap(err, "dashboard: enumerate archive")
	}

	log := zap.L().With(zap.String("archive_kind", string(kind)))
	ds := &Dataset{
		Tables:     []*model.Table{},
		Entries:    len(entries),
		chartLimit: b.chartLimit,
		recorder:   b.recorder,
	}

	for _, entry := range entries {
		tbl, err := b.normalizer.Parse(ctx, entry)
		switch {
		case eris.Is(err, model.ErrEmptyEntry):
			b.recorder.EntryProcessed(OutcomeEmpty)
			log.Debug("dashboard: skipping empty entry", zap.String("entry", entry.Name))
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "dashboard: load cancelled")
			}
			b.recorder.EntryProcessed(OutcomeParseError)
			log.Warn("dashboard: skipping unreadable entry", zap.String("entry", entry.Name), zap.Error(err))
			ds.notice(model.Notice{
				Kind:    model.NoticeParseError,
				Source:  entry.Name,
				Message: fmt.Sprintf("could not read %s: %v", entry.Name, errors.Unwrap(err)),
			})
			continue
		}

		switch err := ingest.Usable(tbl); {
		case eris.Is(err, model.ErrUnclassified):
			b.recorder.EntryProcessed(OutcomeUnclassified)
			log.Info("dashboard: dropping unclassified table",
				zap.String("entry", entry.Name),
				zap.Strings("columns", tbl.Columns),
				zap.Error(err),
			)
			ds.notice(model.Notice{
				Kind:    model.NoticeUnclassified,
				Source:  entry.Name,
				Message: fmt.Sprintf("%s has no Company, Industry or NAICS column and was skipped", entry.Name),
			})
			continue
		case eris.Is(err, model.ErrNoLabel):
			b.recorder.EntryProcessed(OutcomeNoLabel)
			log.Warn("dashboard: dropping table without occupation label",
				zap.String("entry", entry.Name),
				zap.String("rules", b.normalizer.Rules().Version),
				zap.Error(err),
			)
			ds.notice(model.Notice{
				Kind:    model.NoticeNoLabel,
				Source:  entry.Name,
				Message: fmt.Sprintf("%s has no occupation in its file name and was skipped", entry.Name),
			})
			continue
		}

		b.recorder.EntryProcessed(OutcomeLoaded)
		ds.Tables = append(ds.Tables, tbl)
	}

	log.Info("dashboard: archive loaded",
		zap.Int("entries", ds.Entries),
		zap.Int("tables", len(ds.Tables)),
		zap.Int("notices", len(ds.Notices)),
	)
	return ds, nil
}

// LoadSource reads the archive from src and loads it.
func (b *Builder) LoadSource(ctx context.Context, src fetcher.Source) (*Dataset, error) {
	archive, err := src.Archive(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "dashboard: read source %s", src.Describe())
	}
	return b.Load(ctx, archive)
}

// Occupations returns the sorted distinct labels of the loaded tables.
func (d *Dataset) Occupations() []string {
	seen := make(map[string]bool)
	occs := []string{}
	for _, t := range d.Tables {
		if t.Occupation == "" || seen[t.Occupation] {
			continue
		}
		seen[t.Occupation] = true
		occs = append(occs, t.Occupation)
	}
	sort.Strings(occs)
	return occs
}

// View aggregates the dataset for one occupation. An empty selection picks
// the first label. An unknown selection yields an empty view with a no-data
// notice, never an error.
func (d *Dataset) View(selected string) *model.ViewModel {
	occs := d.Occupations()
	vm := &model.ViewModel{
		RequestID:     uuid.NewString(),
		Occupations:   occs,
		Companies:     model.Ranking{},
		CompanyChart:  []model.ChartPoint{},
		Industries:    []model.IndustryRow{},
		IndustryChart: []model.ChartPoint{},
		Notices:       append([]model.Notice(nil), d.Notices...),
	}

	addNotice := func(n model.Notice) {
		vm.Notices = append(vm.Notices, n)
		d.recorder.NoticeRaised(n.Kind)
	}

	if d.Entries == 0 {
		vm.Empty = true
		addNotice(model.Notice{Kind: model.NoticeNoData, Message: NoCSVsMessage})
		return vm
	}

	if selected == "" && len(occs) > 0 {
		selected = occs[0]
	}
	vm.Selected = selected

	companies, cn := aggregate.Companies(d.Tables, selected)
	industries, in := aggregate.Industries(d.Tables, selected)
	for _, n := range append(cn, in...) {
		addNotice(n)
	}

	vm.Companies = companies
	vm.CompanyChart = aggregate.CompanyChart(companies, d.chartLimit)
	vm.Industries = industries
	vm.IndustryChart = aggregate.IndustryChart(industries, d.chartLimit)

	if !vm.HasData() {
		msg := "No data available."
		if selected != "" {
			msg = fmt.Sprintf("No data for %s.", selected)
		}
		addNotice(model.Notice{Kind: model.NoticeNoData, Message: msg})
	}
	return vm
}

// BuildView loads archive and aggregates it for selected in one call.
func (b *Builder) BuildView(ctx context.Context, archive []byte, selected string) (*model.ViewModel, error) {
	ds, err := b.Load(ctx, archive)
	if err != nil {
		return nil, err
	}
	return ds.View(selected), nil
}
