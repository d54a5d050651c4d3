package model

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrEmptyEntry marks an archive entry whose body is empty or whitespace only.
	ErrEmptyEntry = eris.New("entry has no content")

	// ErrUnclassified marks a table with neither a company nor an industry column.
	ErrUnclassified = eris.New("no company, industry or naics column")

	// ErrNoLabel marks a table whose file name reduces to an empty occupation label.
	ErrNoLabel = eris.New("file name yields no occupation label")
)

// ArchiveFormatError wraps a failure to open or read the uploaded archive.
// It is fatal for the whole request.
type ArchiveFormatError struct {
	Err error
}

func (e *ArchiveFormatError) Error() string {
	return fmt.Sprintf("archive format: %v", e.Err)
}

func (e *ArchiveFormatError) Unwrap() error {
	return e.Err
}

// NewArchiveFormatError wraps err as an ArchiveFormatError.
func NewArchiveFormatError(err error) *ArchiveFormatError {
	return &ArchiveFormatError{Err: err}
}

// RecordParseError reports one entry that could not be parsed. The entry is
// skipped and the batch continues.
type RecordParseError struct {
	Entry string
	Err   error
}

func (e *RecordParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Entry, e.Err)
}

func (e *RecordParseError) Unwrap() error {
	return e.Err
}

// MissingExpectedColumnError reports a table lacking a column its view requires.
type MissingExpectedColumnError struct {
	Entry   string
	Columns []string
}

func (e *MissingExpectedColumnError) Error() string {
	return fmt.Sprintf("%s: missing expected columns %q", e.Entry, e.Columns)
}

// IsMissingExpectedColumn returns true if err (or any error in its chain) is a MissingExpectedColumnError.
func IsMissingExpectedColumn(err error) bool {
	var mce *MissingExpectedColumnError
	return errors.As(err, &mce)
}

// IsArchiveFormat returns true if err (or any error in its chain) is an ArchiveFormatError.
func IsArchiveFormat(err error) bool {
	var afe *ArchiveFormatError
	return errors.As(err, &afe)
}

// IsRecordParse returns true if err (or any error in its chain) is a RecordParseError.
func IsRecordParse(err error) bool {
	var rpe *RecordParseError
	return errors.As(err, &rpe)
}
