package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
	"github.com/sells-group/postings-dashboard/internal/occupation"
)

const (
	hash        = "9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b4c"
	industryCSV = "NAICS,Industry,Occupation Jobs in Industry (2024),Occupation Jobs in Industry (2029)," +
		"Change (2024 - 2029),% Change (2024 - 2029),% of Occupation in Industry (2024),% of Total Jobs in Industry (2024)\n" +
		"455110,Department Stores,2100,2200,100,4.8%,12.1%,3.0%\n" +
		"445110,Supermarkets,3400,3500,100,2.9%,19.6%,2.2%\n"
)

func exportName(occ, category string) string {
	return fmt.Sprintf("Job_Postings_Table_%s_%s_in_Los_Angeles_County_CA_%s.csv", occ, category, hash)
}

func archive(t *testing.T, entries ...model.ArchiveEntry) []byte {
	t.Helper()
	data, err := fetcher.BuildTarGz(entries)
	require.NoError(t, err)
	return data
}

func entry(name, content string) model.ArchiveEntry {
	return model.ArchiveEntry{Name: name, Content: []byte(content)}
}

// recorder counts callbacks for assertions.
type recorder struct {
	archives []error
	outcomes map[string]int
	notices  map[model.NoticeKind]int
}

func newRecorder() *recorder {
	return &recorder{outcomes: map[string]int{}, notices: map[model.NoticeKind]int{}}
}

func (r *recorder) ArchiveLoaded(_ fetcher.ArchiveKind, err error) { r.archives = append(r.archives, err) }
func (r *recorder) EntryProcessed(outcome string)                  { r.outcomes[outcome]++ }
func (r *recorder) NoticeRaised(kind model.NoticeKind)             { r.notices[kind]++ }

func retailArchive(t *testing.T) []byte {
	return archive(t,
		entry(exportName("First-Line_Supervisors_of_Retail_Sales_Workers", "Company"),
			"Company,Unique Postings\nTarget,40\nWalmart,55\nTarget,30\n"),
		entry(exportName("First-Line_Supervisors_of_Retail_Sales_Workers", "Industry"), industryCSV),
		entry(exportName("Food_Service_Managers", "Company"), "Company,Unique Postings\nSodexo,9\n"),
	)
}

func TestBuildView_RetailSupervisors(t *testing.T) {
	b := New(Options{})
	vm, err := b.BuildView(context.Background(), retailArchive(t), "First-Line Supervisors of Retail Sales Workers")
	require.NoError(t, err)

	assert.NotEmpty(t, vm.RequestID)
	assert.False(t, vm.Empty)
	assert.Equal(t, []string{"First-Line Supervisors of Retail Sales Workers", "Food Service Managers"}, vm.Occupations)
	assert.Equal(t, model.Ranking{{Category: "Target", Count: 70}, {Category: "Walmart", Count: 55}}, vm.Companies)
	assert.Equal(t, []model.ChartPoint{{Label: "Target", Value: 70}, {Label: "Walmart", Value: 55}}, vm.CompanyChart)

	require.Len(t, vm.Industries, 2)
	assert.Equal(t, "Department Stores", vm.Industries[0].Industry)
	assert.Equal(t, "Supermarkets", vm.IndustryChart[0].Label)
	assert.Empty(t, vm.Notices)
}

func TestBuildView_DefaultSelection(t *testing.T) {
	vm, err := New(Options{}).BuildView(context.Background(), retailArchive(t), "")
	require.NoError(t, err)
	assert.Equal(t, "First-Line Supervisors of Retail Sales Workers", vm.Selected)
	assert.True(t, vm.HasData())
}

func TestBuildView_UnknownOccupation(t *testing.T) {
	vm, err := New(Options{}).BuildView(context.Background(), retailArchive(t), "Astronauts")
	require.NoError(t, err)
	assert.Empty(t, vm.Companies)
	assert.Empty(t, vm.Industries)
	require.Len(t, vm.Notices, 1)
	assert.Equal(t, model.NoticeNoData, vm.Notices[0].Kind)
	assert.Contains(t, vm.Notices[0].Message, "Astronauts")
}

func TestBuildView_NoCSVs(t *testing.T) {
	vm, err := New(Options{}).BuildView(context.Background(), archive(t), "")
	require.NoError(t, err)
	assert.True(t, vm.Empty)
	assert.Empty(t, vm.Occupations)
	require.Len(t, vm.Notices, 1)
	assert.Equal(t, NoCSVsMessage, vm.Notices[0].Message)
}

func TestBuildView_ArchiveFormatError(t *testing.T) {
	rec := newRecorder()
	_, err := New(Options{Recorder: rec}).BuildView(context.Background(), []byte("definitely not gzip"), "")
	require.Error(t, err)
	assert.True(t, model.IsArchiveFormat(err))
	require.Len(t, rec.archives, 1)
	assert.Error(t, rec.archives[0])
}

func TestLoad_SkipsBadEntriesAndContinues(t *testing.T) {
	rec := newRecorder()
	data := archive(t,
		entry("Job_Postings_Table_Cooks_Company.csv", "Company,Unique Postings\n\"Broken,1\n"),
		entry("Job_Postings_Table_Cooks_Notes.csv", "Occupation,Unique Postings\nCooks,5\n"),
		entry("Job_Postings_Table_Cooks_Blank_Company.csv", "   \n"),
		entry("Job_Postings_Table_Bakers_Company.csv", "Company,Unique Postings\nAcme,2\n"),
	)

	ds, err := New(Options{Recorder: rec}).Load(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Entries)
	require.Len(t, ds.Tables, 1)
	assert.Equal(t, "Bakers", ds.Tables[0].Occupation)
	assert.Equal(t, []string{"Bakers"}, ds.Occupations())

	kinds := []model.NoticeKind{}
	for _, n := range ds.Notices {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []model.NoticeKind{model.NoticeParseError, model.NoticeUnclassified}, kinds)

	assert.Equal(t, 1, rec.outcomes[OutcomeLoaded])
	assert.Equal(t, 1, rec.outcomes[OutcomeEmpty])
	assert.Equal(t, 1, rec.outcomes[OutcomeParseError])
	assert.Equal(t, 1, rec.outcomes[OutcomeUnclassified])
	assert.Equal(t, 1, rec.notices[model.NoticeParseError])
}

func TestLoad_TableWithoutLabelNoticed(t *testing.T) {
	rec := newRecorder()
	data := archive(t,
		entry("Company_in_Los_Angeles_County_CA.csv", "Company,Unique Postings\nAcme,3\n"),
		entry("Job_Postings_Table_X_Company.csv", "Company,Unique Postings\nAcme,1\nAcme ,2\n"),
	)

	vm, err := New(Options{Recorder: rec}).BuildView(context.Background(), data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, vm.Occupations)
	assert.Equal(t, model.Ranking{{Category: "Acme", Count: 3}}, vm.Companies)

	require.Len(t, vm.Notices, 1)
	assert.Equal(t, model.NoticeNoLabel, vm.Notices[0].Kind)
	assert.Equal(t, "Company_in_Los_Angeles_County_CA.csv", vm.Notices[0].Source)
	assert.Contains(t, vm.Notices[0].Message, "no occupation")

	assert.Equal(t, 1, rec.outcomes[OutcomeNoLabel])
	assert.Equal(t, 1, rec.outcomes[OutcomeLoaded])
	assert.Equal(t, 1, rec.notices[model.NoticeNoLabel])
}

func TestLoad_WhitespaceOnlyEntryExcluded(t *testing.T) {
	data := archive(t,
		entry("Job_Postings_Table_Cooks_Company.csv", " \n\t "),
		entry("Job_Postings_Table_Cooks_Industry.csv", "\n"),
	)

	vm, err := New(Options{}).BuildView(context.Background(), data, "")
	require.NoError(t, err)
	assert.False(t, vm.Empty)
	assert.Empty(t, vm.Occupations)
	assert.Empty(t, vm.Companies)
	assert.Empty(t, vm.Industries)
}

func TestLoad_RoundTripDistinctLabels(t *testing.T) {
	occs := []string{"Cooks", "Bakers", "Security_Guards", "Retail_Salespersons", "Cashiers"}
	var entries []model.ArchiveEntry
	for _, occ := range occs {
		entries = append(entries, entry(exportName(occ, "Company"), "Company,Unique Postings\nAcme,1\n"))
	}

	ds, err := New(Options{}).Load(context.Background(), archive(t, entries...))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakers", "Cashiers", "Cooks", "Retail Salespersons", "Security Guards"}, ds.Occupations())
}

func TestLoadSource_DirArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Job_Postings_Table_Cooks_Company.csv"), []byte("Company\nAcme\n"), 0o644))
	data, err := fetcher.DirSource{Dir: dir}.Archive(context.Background())
	require.NoError(t, err)

	ds, err := New(Options{}).LoadSource(context.Background(), fetcher.BytesSource{Data: data})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cooks"}, ds.Occupations())
}

func TestNew_RulesOption(t *testing.T) {
	data := archive(t, entry("Job_Postings_Table_Cooks_Company_in_Los_Angeles_County_CA.csv", "Company,Unique Postings\nAcme,1\n"))

	ds, err := New(Options{Rules: occupation.V1}).Load(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cooks Company"}, ds.Occupations())
}

func TestView_ChartLimit(t *testing.T) {
	csv := "Company,Unique Postings\n"
	for i := range 30 {
		csv += fmt.Sprintf("Co%d,%d\n", i, i+1)
	}
	vm, err := New(Options{ChartLimit: 3}).BuildView(context.Background(),
		archive(t, entry("Job_Postings_Table_Cooks_Company.csv", csv)), "Cooks")
	require.NoError(t, err)
	assert.Len(t, vm.Companies, 30)
	assert.Len(t, vm.CompanyChart, 3)
	assert.Equal(t, "Co29", vm.CompanyChart[0].Label)
}

func TestBuildView_Idempotent(t *testing.T) {
	b := New(Options{})
	data := retailArchive(t)

	first, err := b.BuildView(context.Background(), data, "Food Service Managers")
	require.NoError(t, err)
	second, err := b.BuildView(context.Background(), data, "Food Service Managers")
	require.NoError(t, err)

	assert.NotEqual(t, first.RequestID, second.RequestID)
	first.RequestID, second.RequestID = "", ""
	assert.Equal(t, first, second)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Load(ctx, retailArchive(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
