package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// conventionalFileNames maps a logical file name to the filename pattern
// used under raw/<year>/ (§6 file layout). Schools tolerates a filename
// variant, per §4.2 stage 1.
var conventionalFileNames = map[string]string{
	"applicants":             "applicants.csv",
	"experiences":            "experiences.csv",
	"personal_statement":     "personal_statement.csv",
	"secondary_applications": "secondary_applications.csv",
	"gpa_trend":              "gpa_trend.csv",
	"languages":              "languages.csv",
	"parents":                "parents.csv",
	"schools":                "schools.csv",
	"letters":                "letters.csv",
}

// Preparer implements domain.DataPreparer, grounded on the multi-file
// ingestion + normalization + join pipeline of §4.2.
type Preparer struct {
	rawDataDir string
	outputDir  string
	log        *logrus.Logger
}

// NewPreparer constructs a Preparer rooted at rawDataDir (conventional
// raw/<year>/ layout). outputDir may be empty, in which case
// PrepareDataset skips the master-CSV export (§4.2 stage 7 is optional).
func NewPreparer(rawDataDir string, logger *logrus.Logger) *Preparer {
	return &Preparer{rawDataDir: rawDataDir, log: logger}
}

// WithOutputDir enables the per-cycle master-CSV export performed by
// PrepareDataset.
func (p *Preparer) WithOutputDir(outputDir string) *Preparer {
	p.outputDir = outputDir
	return p
}

// PrepareDataset locates files under the conventional directory layout
// for each requested cycle year and prepares a unified frame.
func (p *Preparer) PrepareDataset(ctx context.Context, years []int, progress domain.ProgressCallback) ([]domain.Applicant, *domain.Report, error) {
	var all []domain.Applicant
	report := &domain.Report{}

	for i, year := range years {
		files := make(map[string]string, len(conventionalFileNames))
		for logical, name := range conventionalFileNames {
			files[logical] = filepath.Join(p.rawDataDir, fmt.Sprintf("%d", year), name)
		}

		yearProgress := func(stage string, pct float64) {
			if progress != nil {
				overall := (float64(i) + pct) / float64(len(years))
				progress(fmt.Sprintf("year %d: %s", year, stage), overall)
			}
		}

		applicants, yearReport, err := p.prepareYear(ctx, year, files, yearProgress)
		if err != nil {
			return nil, report, err
		}
		report.Errors = append(report.Errors, yearReport.Errors...)
		report.Warnings = append(report.Warnings, yearReport.Warnings...)
		if report.HasFatal() {
			return nil, report, fmt.Errorf("data preparation failed for year %d", year)
		}
		all = append(all, applicants...)

		if p.outputDir != "" {
			path := filepath.Join(p.outputDir, fmt.Sprintf("master_%d.csv", year))
			if err := WriteMasterCSV(applicants, path); err != nil {
				p.log.WithFields(logrus.Fields{"year": year, "error": err}).Warn("failed to write master CSV")
			}
		}
	}

	deduped := dedupeReapplicants(all, report)
	if progress != nil {
		progress("complete", 1.0)
	}
	return deduped, report, nil
}

// PrepareFromFiles ingests a single cycle from an explicit logical-name
// to path mapping (the scoring-time upload path, §4.2).
func (p *Preparer) PrepareFromFiles(ctx context.Context, files map[string]string, progress domain.ProgressCallback) ([]domain.Applicant, *domain.Report, error) {
	applicants, report, err := p.prepareYear(ctx, 0, files, progress)
	if err != nil {
		return nil, report, err
	}
	deduped := dedupeReapplicants(applicants, report)
	return deduped, report, nil
}

func (p *Preparer) prepareYear(ctx context.Context, year int, files map[string]string, progress domain.ProgressCallback) ([]domain.Applicant, *domain.Report, error) {
	report := &domain.Report{}

	for _, logical := range taxonomy.RequiredLogicalFiles {
		if _, ok := files[logical]; !ok {
			report.Add(domain.NewConfigurationError(fmt.Sprintf("missing required logical file: %s", logical)))
			return nil, report, fmt.Errorf("missing required logical file: %s", logical)
		}
	}

	tables := make(map[string]*rawTable)
	for logical, path := range files {
		t, err := readTable(path)
		if err != nil {
			if contains(taxonomy.OptionalLogicalFiles, logical) {
				p.log.WithFields(logrus.Fields{"file": logical}).Debug("optional file absent, skipping")
				continue
			}
			report.Add(domain.NewConfigurationError(fmt.Sprintf("reading %s: %v", logical, err)))
			return nil, report, err
		}
		tables[logical] = t
		if warn := rowCountCheck(logical, len(t.Rows)); warn != nil {
			report.Add(warn)
		}
	}
	progress("read_and_normalize", 0.2)

	applicantsTable, ok := tables["applicants"]
	if !ok {
		report.Add(domain.NewSchemaError("applicants table missing after load", "applicants", ""))
		return nil, report, fmt.Errorf("applicants table missing")
	}
	appIDCol := applicantsTable.idColumn()
	if appIDCol == "" {
		report.Add(domain.NewSchemaError("could not resolve ID column", "applicants", ""))
		return nil, report, fmt.Errorf("missing ID column in applicants table")
	}
	applicantIDs := applicantsTable.ids(appIDCol)

	for logical, t := range tables {
		if logical == "applicants" {
			continue
		}
		idCol := t.idColumn()
		if idCol == "" {
			continue
		}
		fatal, warn := referentialAudit(logical, applicantIDs, t.ids(idCol))
		if fatal != nil {
			report.Add(fatal)
			return nil, report, fmt.Errorf("referential audit failed for %s", logical)
		}
		if warn != nil {
			report.Add(warn)
		}
	}
	progress("referential_audit", 0.4)

	var experienceAgg map[string]*experienceAggregate
	var experienceDescriptions map[string]map[string]string
	if t, ok := tables["experiences"]; ok {
		idCol := t.idColumn()
		experienceAgg = aggregateExperiences(t, idCol, report)
		experienceDescriptions = aggregateExperienceDescriptions(t, idCol)
	}
	var languageCounts map[string]float64
	if t, ok := tables["languages"]; ok {
		languageCounts = aggregateLanguages(t, t.idColumn())
	}
	var parentEdu map[string]float64
	if t, ok := tables["parents"]; ok {
		parentEdu = aggregateParents(t, t.idColumn(), report)
	}
	var gpaTrend map[string]float64
	if t, ok := tables["gpa_trend"]; ok {
		gpaTrend = aggregateGPATrend(t, t.idColumn())
	}
	if report.HasFatal() {
		return nil, report, fmt.Errorf("aggregation failed: %s", report.Errors[0].Error())
	}
	progress("aggregate", 0.6)

	psByID := textByID(tables["personal_statement"])
	secByID := textByID(tables["secondary_applications"])

	applicants := make([]domain.Applicant, 0, len(applicantsTable.Rows))
	for _, row := range applicantsTable.Rows {
		id := row[appIDCol]
		row["AMCAS_ID"] = id

		a := buildApplicant(row, year, experienceAgg[id], languageCounts[id], parentEdu[id], gpaTrend[id], experienceDescriptions[id])
		if ps, ok := psByID[id]; ok {
			a.PersonalStatement = ps
		}
		if sec, ok := secByID[id]; ok {
			a.SecondaryEssays = sec
		}
		applicants = append(applicants, a)
	}
	progress("join_and_clean", 0.9)

	return applicants, report, nil
}

func textByID(t *rawTable) map[string]string {
	if t == nil {
		return nil
	}
	idCol := t.idColumn()
	if idCol == "" {
		return nil
	}
	result := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		id := row[idCol]
		for _, col := range t.Columns {
			if col == idCol {
				continue
			}
			if v := row[col]; v != "" {
				result[id] = v
				break
			}
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
