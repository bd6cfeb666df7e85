package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pinshare/internal/client/models"
)

var (
	ErrShareIDRequired = errors.New("share ID is required")
	ErrFileIDRequired  = errors.New("file ID is required")
	ErrInvalidHours    = errors.New("expiration hours must be positive")
	ErrPreviewLink     = errors.New("preview links do not exist on the server")
)

// OrphanedPinError means the content was pinned but the metadata service
// did not register it. The pin is left in place; Hash identifies it.
type OrphanedPinError struct {
	Hash string
	Err  error
}

func (e *OrphanedPinError) Error() string {
	return fmt.Sprintf("file pinned as %s but not registered: %v", e.Hash, e.Err)
}

func (e *OrphanedPinError) Unwrap() error { return e.Err }

// StepStatus is the outcome of a best-effort step.
type StepStatus int

const (
	StepSkipped StepStatus = iota
	StepOK
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepFailed:
		return "failed"
	default:
		return "skipped"
	}
}

type StepResult struct {
	Status StepStatus
	Err    error
}

func (r StepResult) Failed() bool { return r.Status == StepFailed }

// DeleteFileResult reports the best-effort steps of DeleteFile. The
// authoritative deletion's error is DeleteFile's error return.
type DeleteFileResult struct {
	FileID models.ID
	Hash   string
	Lookup StepResult
	Unpin  StepResult
}

// LinkSource tells where a share link listing came from.
type LinkSource int

const (
	SourceBackend LinkSource = iota
	// SourcePreview links were synthesized from the user's files because
	// the listing endpoint is not available. They cannot be opened.
	SourcePreview
)

func (s LinkSource) String() string {
	if s == SourcePreview {
		return "preview"
	}
	return "backend"
}

type ShareLinkList struct {
	Links  []models.ShareLink
	Source LinkSource
}
