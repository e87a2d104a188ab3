// Package survey loads participant survey exports and derives the
// Schwartz value-survey scores used downstream.
package survey

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

const completionCodeColumn = "completionCode"

// Column renames from the export's question text to the user fields.
var questionRenames = map[string]string{
	"What is your age?":                                           "age",
	"What is your gender?":                                        "gender",
	"List of Countries":                                           "birth",
	"In which country do you currently reside?":                   "country",
	"How long have you lived in this country? (in years)":         "years_in_country",
	"In which city do you currently reside?":                      "city",
	"What is the highest level of education you have completed?":  "education",
	"What is your occupation?":                                    "occupation",
	"What languages do you speak?":                                "languages",
}

var digitsRe = regexp.MustCompile(`\d+`)

// Load reads a Qualtrics-style export (.csv or .xlsx) and returns one
// user per participant row, in file order. Exports carry two header
// rows: machine names first, question text second; the question text is
// the real header. Rows whose completion code does not carry a "u-" or
// "p-" prefix are metadata and skipped. remap rewrites completion codes
// (participants who restarted under a fresh code); duplicates it may
// introduce are left for cohort cleaning.
func Load(path string, remap map[string]string, log *logrus.Logger) ([]*types.User, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return parse(rows, remap, log)
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewSurveyError(errors.CodeBadSurveyFile, fmt.Sprintf("survey: open %s", path), err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, errors.NewSurveyError(errors.CodeBadSurveyFile, fmt.Sprintf("survey: read %s", path), err)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, errors.NewSurveyError(errors.CodeBadSurveyFile, fmt.Sprintf("survey: open %s", path), err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, errors.NewSurveyError(errors.CodeBadSurveyFile, fmt.Sprintf("survey: read %s", path), err)
		}
		return rows, nil
	default:
		return nil, errors.NewSurveyError(errors.CodeBadSurveyFile,
			fmt.Sprintf("survey: unsupported file type %q", filepath.Ext(path)), nil)
	}
}

func parse(rows [][]string, remap map[string]string, log *logrus.Logger) ([]*types.User, error) {
	if len(rows) < 2 {
		return nil, errors.NewSurveyError(errors.CodeBadSurveyFile, "survey: export has no header rows", nil)
	}
	machine, questions := rows[0], rows[1]

	codeCol := -1
	startCol := -1
	durationCol := -1
	for i, name := range machine {
		switch name {
		case completionCodeColumn:
			codeCol = i
		case "StartDate":
			startCol = i
		case "Duration (in seconds)":
			durationCol = i
		}
	}
	if codeCol < 0 {
		return nil, errors.NewSurveyError(errors.CodeMissingColumn,
			fmt.Sprintf("survey: export has no %q column", completionCodeColumn), nil)
	}

	// Question columns ("Q..." machine names) carry demographics and the
	// value-survey ratings; everything else in the export is Qualtrics
	// bookkeeping.
	type column struct {
		index int
		field string
		trait string
	}
	var columns []column
	for i, name := range machine {
		if !strings.HasPrefix(name, "Q") || i >= len(questions) {
			continue
		}
		question := questions[i]
		if trait, ok := ssvsTrait(question); ok {
			columns = append(columns, column{index: i, trait: trait})
			continue
		}
		if field, ok := questionRenames[question]; ok {
			columns = append(columns, column{index: i, field: field})
		}
	}

	var users []*types.User
	var crossBorder []string
	for _, row := range rows[2:] {
		code := cell(row, codeCol)
		if !strings.HasPrefix(code, "u-") && !strings.HasPrefix(code, "p-") {
			continue
		}
		if mapped, ok := remap[code]; ok {
			code = mapped
		}

		u := &types.User{ID: code, SSVSScores: make(map[string]float64)}
		u.StartDate = parseStartDate(cell(row, startCol))
		if durationCol >= 0 {
			u.SurveyDurationS, _ = strconv.ParseFloat(cell(row, durationCol), 64)
		}
		for _, c := range columns {
			value := cell(row, c.index)
			if c.trait != "" {
				if digits := digitsRe.FindString(value); digits != "" {
					rating, _ := strconv.ParseFloat(digits, 64)
					u.SSVSScores[c.trait] = rating
				}
				continue
			}
			setField(u, c.field, value)
		}

		// Residence falls back to birth country when unanswered.
		if u.Country == "" {
			u.Country = u.Birth
		}
		u.Birth = normalizeCountry(u.Birth)
		u.Country = normalizeCountry(u.Country)
		if u.Birth != u.Country {
			crossBorder = append(crossBorder, u.ID)
		}

		users = append(users, u)
	}

	if len(crossBorder) > 0 && log != nil {
		log.WithField("users", crossBorder).
			Warn("survey: participants not born in their country of residence")
	}
	return users, nil
}

func setField(u *types.User, field, value string) {
	switch field {
	case "age":
		u.Age = value
	case "gender":
		u.Gender = value
	case "birth":
		u.Birth = value
	case "country":
		u.Country = value
	case "years_in_country":
		u.YearsInCountry = value
	case "city":
		u.City = value
	case "education":
		u.Education = value
	case "occupation":
		u.Occupation = value
	case "languages":
		u.Languages = value
	}
}

// ssvsTrait extracts the trait name from a value-survey question. The
// question text reads "Please rate ... for you. - <n>. TRAIT (...)";
// the trait is the token after the item number.
func ssvsTrait(question string) (string, bool) {
	if !strings.HasPrefix(question, "Please rate") {
		return "", false
	}
	parts := strings.SplitN(question, "for you. - ", 2)
	if len(parts) != 2 {
		return "", false
	}
	tokens := strings.Split(parts[1], " ")
	if len(tokens) < 2 {
		return "", false
	}
	trait := strings.SplitN(tokens[1], "\n", 2)[0]
	return strings.ToLower(trait), true
}

func normalizeCountry(country string) string {
	country = strings.ToLower(strings.TrimSpace(country))
	switch country {
	case "united states of america":
		return "US"
	case "india":
		return "IND"
	}
	return country
}

func parseStartDate(value string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
