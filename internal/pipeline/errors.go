package pipeline

import (
	"errors"
	"fmt"
)

// Per-document failure kinds. Match them with errors.Is.
var (
	// ErrExtraction indicates the PDF text could not be read. Nothing was moved.
	ErrExtraction = errors.New("text extraction failed")

	// ErrRelocation indicates the PDF could not be moved into the archive. Nothing was moved.
	ErrRelocation = errors.New("relocation failed")

	// ErrSummarization indicates the backend call failed. The move was rolled back.
	ErrSummarization = errors.New("summarization failed")

	// ErrPersist indicates the summary could not be written. The PDF stays in the archive.
	ErrPersist = errors.New("saving summary failed")

	// ErrRollback indicates a failed summarization could not be undone.
	// The PDF is left in the archive directory.
	ErrRollback = errors.New("rollback failed")
)

// Stage names a step of the per-document pipeline.
type Stage string

const (
	StageBegin     Stage = "begin"
	StageExtract   Stage = "extract"
	StageClassify  Stage = "classify"
	StageRelocate  Stage = "relocate"
	StageSummarize Stage = "summarize"
	StagePersist   Stage = "persist"
	StageRollback  Stage = "rollback"
	StageBatch     Stage = "batch"
)

// kind returns the sentinel error for failures at s.
func (s Stage) kind() error {
	switch s {
	case StageExtract:
		return ErrExtraction
	case StageRelocate:
		return ErrRelocation
	case StageSummarize:
		return ErrSummarization
	case StagePersist:
		return ErrPersist
	case StageRollback:
		return ErrRollback
	}
	return nil
}

// StageError records which stage failed for which document.
type StageError struct {
	Stage    Stage
	Document string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Document, e.Stage.kind(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the failed stage.
func (e *StageError) Is(target error) bool {
	kind := e.Stage.kind()
	return kind != nil && target == kind
}
