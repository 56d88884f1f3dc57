package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/admissions-triage/core/internal/domain"
)

// pipelineOptions collects the CLI surface named in §6 ("recognized CLI
// options, conceptual") into one struct, kept independent of cobra so the
// flag-derived logic below can be unit tested without constructing a
// cobra.Command.
type pipelineOptions struct {
	skipIngestion bool
	skipRubric    bool
	twoStage      bool
	bakeoff       bool
	resume        bool
	idFile        string
	years         []int
	cycleYear     int
}

// parseYears parses a comma-separated cycle-year list ("2021,2022,2023")
// into ints, rejecting anything that doesn't parse as a four-digit year.
func parseYears(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("--years must name at least one cycle year")
	}

	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid cycle year %q: %w", p, err)
		}
		if y < 1900 || y > 9999 {
			return nil, fmt.Errorf("cycle year %d is out of range", y)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("--years must name at least one cycle year")
	}
	return years, nil
}

// readIDFile reads a newline-delimited list of AMCAS IDs, one per line,
// blank lines and lines starting with "#" ignored.
func readIDFile(path string) (map[int64]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening id file %s: %w", path, err)
	}
	defer f.Close()

	ids := make(map[int64]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amcas_id %q in %s: %w", line, path, err)
		}
		ids[id] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading id file %s: %w", path, err)
	}
	return ids, nil
}

// filterByIDs restricts a pool to the given AMCAS IDs, or returns it
// unchanged when ids is nil (no --id-file given).
func filterByIDs(applicants []domain.Applicant, ids map[int64]bool) []domain.Applicant {
	if ids == nil {
		return applicants
	}
	filtered := make([]domain.Applicant, 0, len(ids))
	for _, a := range applicants {
		if ids[a.AMCASID] {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
