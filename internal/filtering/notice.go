package filtering

import (
	"fmt"
	"strings"
)

// Level is the severity of a notice
type Level string

const (
	// LevelInfo marks a notice about reduced functionality
	LevelInfo Level = "info"
	// LevelWarning marks a skipped filter step
	LevelWarning Level = "warning"
	// LevelError marks a category or comparison that cannot be shown
	LevelError Level = "error"
)

// Code identifies the condition a notice reports
type Code string

// Notice codes
const (
	CodeLoadError     Code = "load_error"
	CodeEmptyDataset  Code = "empty_dataset"
	CodeMissingColumn Code = "missing_column"
	CodeNoTeamColumn  Code = "no_team_column"
	CodeNoData        Code = "no_data"
)

// Notice is a user-visible, non-fatal message raised while building a view
type Notice struct {
	Level   Level  `json:"level"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Column  string `json:"column,omitempty"`
}

// MissingColumnNotice reports a threshold column absent from the dataset
func MissingColumnNotice(column string) Notice {
	article := "a"
	if column != "" && strings.ContainsRune("AEIOUaeiou", rune(column[0])) {
		article = "an"
	}
	return Notice{
		Level:   LevelWarning,
		Code:    CodeMissingColumn,
		Message: fmt.Sprintf("The dataset does not contain %s '%s' column for filtering.", article, column),
		Column:  column,
	}
}

// NoTeamColumnNotice reports that team filtering is unavailable
func NoTeamColumnNotice(column string) Notice {
	return Notice{
		Level:   LevelInfo,
		Code:    CodeNoTeamColumn,
		Message: fmt.Sprintf("No team filter available: the dataset has no '%s' column.", column),
		Column:  column,
	}
}

// NoDataNotice reports an empty comparison
func NoDataNotice() Notice {
	return Notice{
		Level:   LevelError,
		Code:    CodeNoData,
		Message: "No data available for the selected players.",
	}
}

// LoadErrorNotice reports a dataset that could not be loaded
func LoadErrorNotice(label string) Notice {
	return Notice{
		Level:   LevelError,
		Code:    CodeLoadError,
		Message: fmt.Sprintf("No data available for %s.", label),
	}
}

// EmptyDatasetNotice reports a dataset that loaded with no records
func EmptyDatasetNotice(label string) Notice {
	return Notice{
		Level:   LevelError,
		Code:    CodeEmptyDataset,
		Message: fmt.Sprintf("No data available for %s.", label),
	}
}
