package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/client/gateway"
	"github.com/dmitrijs2005/pinshare/internal/client/metrics"
	"github.com/dmitrijs2005/pinshare/internal/client/models"
	"github.com/dmitrijs2005/pinshare/internal/client/pinning"
	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
	"github.com/google/uuid"
)

const (
	unnamedFile   = "Unnamed File"
	tempLinkPfx   = "temp-"
	previewLimit  = 3
	secondsPerDay = 24 * 60 * 60
)

var previewDays = []int64{1, 3, 7}

// SharingService coordinates the pinning service and the metadata service.
type SharingService interface {
	UploadFile(ctx context.Context, upload models.Upload) (*models.FileRecord, error)
	GetUserFiles(ctx context.Context) ([]models.FileRecord, error)
	DeleteFile(ctx context.Context, fileID models.ID) (*DeleteFileResult, error)
	GenerateShareLink(ctx context.Context, fileID models.ID, expirationHours int) (*models.ShareLink, error)
	GetSharedFile(ctx context.Context, shareID string) (*models.FileRecord, error)
	ListShareLinks(ctx context.Context) (*ShareLinkList, error)
	DeleteShareLink(ctx context.Context, shareID string) error
}

type SharingOption func(*sharingService)

// WithListingFallback enables preview links when the listing endpoint
// fails. Remove once every backend serves /files/shared/links.
func WithListingFallback(enabled bool) SharingOption {
	return func(s *sharingService) { s.listingFallback = enabled }
}

func WithSharingLogger(l logging.Logger) SharingOption {
	return func(s *sharingService) { s.log = l }
}

func WithSharingMetrics(m *metrics.Metrics) SharingOption {
	return func(s *sharingService) { s.metrics = m }
}

func WithClock(now func() time.Time) SharingOption {
	return func(s *sharingService) { s.now = now }
}

type sharingService struct {
	api    gateway.Client
	public gateway.Client
	pinner pinning.Pinner

	listingFallback bool
	log             logging.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewSharingService wires the authenticated API gateway, the gateway for
// public share fetches and the pinner.
func NewSharingService(api, public gateway.Client, pinner pinning.Pinner, opts ...SharingOption) SharingService {
	s := &sharingService{
		api:    api,
		public: public,
		pinner: pinner,
		log:    logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type registerFileRequest struct {
	URL            string `json:"url"`
	FileUUID       string `json:"fileuuid"`
	ExpirationTime int64  `json:"expirationTime"`
	IPFSHash       string `json:"ipfsHash"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize"`
	FileType       string `json:"fileType"`
}

// UploadFile pins the content, then registers it. Registration is never
// attempted when pinning fails.
func (s *sharingService) UploadFile(ctx context.Context, upload models.Upload) (*models.FileRecord, error) {
	if upload.Content == nil {
		return nil, fmt.Errorf("upload %q has no content", upload.Name)
	}

	pin, err := s.pinner.Pin(ctx, upload.Name, upload.Content)
	if err != nil {
		s.metrics.PinFailed()
		s.log.Error(ctx, "pinning failed", "file", upload.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrPinFailed, err)
	}

	size := upload.Size
	if size == 0 {
		size = pin.Size
	}
	req := registerFileRequest{
		URL:            pinning.IPFSURL(pin.Hash),
		FileUUID:       uuid.NewString(),
		ExpirationTime: 0,
		IPFSHash:       pin.Hash,
		FileName:       upload.Name,
		FileSize:       size,
		FileType:       upload.Type,
	}

	res, err := s.api.Request(ctx, "/files", gateway.Options{Method: http.MethodPost, Body: req})
	if err != nil {
		s.metrics.OrphanedPin()
		s.log.Warn(ctx, "file pinned but not registered", "hash", pin.Hash, "file", upload.Name, "error", err)
		return nil, &OrphanedPinError{Hash: pin.Hash, Err: err}
	}

	rec := models.FileRecord{}
	if err := res.Decode(&rec); err != nil {
		s.log.Warn(ctx, "unexpected register response", "hash", pin.Hash, "error", err)
	}
	fillFromRequest(&rec, req)
	return &rec, nil
}

func fillFromRequest(rec *models.FileRecord, req registerFileRequest) {
	if rec.IPFSHash == "" {
		rec.IPFSHash = req.IPFSHash
	}
	if rec.URL == "" {
		rec.URL = req.URL
	}
	if rec.FileUUID == "" {
		rec.FileUUID = req.FileUUID
	}
	if rec.FileName == "" {
		rec.FileName = req.FileName
	}
	if rec.FileSize == 0 {
		rec.FileSize = req.FileSize
	}
	if rec.FileType == "" {
		rec.FileType = req.FileType
	}
}

func (s *sharingService) GetUserFiles(ctx context.Context) ([]models.FileRecord, error) {
	res, err := s.api.Request(ctx, "/files/user", gateway.Options{})
	if err != nil {
		return nil, fmt.Errorf("get user files: %w", err)
	}
	var files []models.FileRecord
	if err := res.Decode(&files); err != nil {
		return nil, fmt.Errorf("decode user files: %w", err)
	}
	return files, nil
}

// DeleteFile looks the file up and unpins its content, both best-effort,
// then deletes the record. Only the record deletion's error is returned;
// the result is non-nil in every case.
func (s *sharingService) DeleteFile(ctx context.Context, fileID models.ID) (*DeleteFileResult, error) {
	result := &DeleteFileResult{FileID: fileID}
	if fileID.IsZero() {
		return result, ErrFileIDRequired
	}
	endpoint := "/files/" + url.PathEscape(fileID.String())

	res, err := s.api.Request(ctx, endpoint, gateway.Options{})
	if err == nil {
		var rec models.FileRecord
		err = res.Decode(&rec)
		result.Hash = rec.IPFSHash
	}
	if err != nil {
		result.Lookup = StepResult{Status: StepFailed, Err: err}
		s.metrics.BestEffortFailed("lookup")
		s.log.Warn(ctx, "file lookup before delete failed", "file_id", fileID.String(), "error", err)
	} else {
		result.Lookup = StepResult{Status: StepOK}
	}

	if result.Hash != "" {
		if err := s.pinner.Unpin(ctx, result.Hash); err != nil {
			result.Unpin = StepResult{Status: StepFailed, Err: err}
			s.metrics.BestEffortFailed("unpin")
			s.log.Warn(ctx, "could not unpin content", "hash", result.Hash, "error", err)
		} else {
			result.Unpin = StepResult{Status: StepOK}
		}
	}

	if _, err := s.api.Request(ctx, endpoint, gateway.Options{Method: http.MethodDelete}); err != nil {
		return result, fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return result, nil
}

// GenerateShareLink asks the backend for a link valid for expirationHours;
// the backend computes the absolute expiry.
func (s *sharingService) GenerateShareLink(ctx context.Context, fileID models.ID, expirationHours int) (*models.ShareLink, error) {
	if fileID.IsZero() {
		return nil, ErrFileIDRequired
	}
	if expirationHours <= 0 {
		return nil, ErrInvalidHours
	}

	res, err := s.api.Request(ctx, "/files/share", gateway.Options{
		Method: http.MethodPost,
		Body: struct {
			FileID          models.ID `json:"fileId"`
			ExpirationHours int       `json:"expirationHours"`
		}{fileID, expirationHours},
	})
	if err != nil {
		return nil, fmt.Errorf("generate share link: %w", err)
	}

	var link models.ShareLink
	if err := res.Decode(&link); err != nil {
		return nil, fmt.Errorf("decode share link: %w", err)
	}
	if link.FileID.IsZero() {
		link.FileID = fileID
	}
	return &link, nil
}

// GetSharedFile reads a share through the public endpoint without
// credentials.
func (s *sharingService) GetSharedFile(ctx context.Context, shareID string) (*models.FileRecord, error) {
	if strings.TrimSpace(shareID) == "" {
		return nil, ErrShareIDRequired
	}

	res, err := s.public.Request(ctx, "/files/shared/"+url.PathEscape(shareID), gateway.Options{NoAuth: true})
	if err != nil {
		if rf, ok := common.IsRequestFailed(err); ok && rf.Status == http.StatusNotFound {
			return nil, common.ErrLinkExpiredOrMissing
		}
		return nil, fmt.Errorf("fetch shared file: %w", err)
	}

	var rec models.FileRecord
	if err := res.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode shared file: %w", err)
	}
	return &rec, nil
}

// ListShareLinks returns the user's links. When the listing endpoint fails
// and the fallback is enabled, preview links are synthesized instead; they
// are marked and never sent anywhere.
func (s *sharingService) ListShareLinks(ctx context.Context) (*ShareLinkList, error) {
	res, err := s.api.Request(ctx, "/files/shared/links", gateway.Options{})
	if err == nil {
		return &ShareLinkList{Links: s.normalizeLinks(ctx, res), Source: SourceBackend}, nil
	}

	if _, ok := common.IsRequestFailed(err); !ok || !s.listingFallback {
		return nil, fmt.Errorf("list share links: %w", err)
	}

	s.log.Warn(ctx, "share listing unavailable, using preview links", "error", err)
	return &ShareLinkList{Links: s.previewLinks(ctx), Source: SourcePreview}, nil
}

func (s *sharingService) normalizeLinks(ctx context.Context, res *gateway.Result) []models.ShareLink {
	var raw []json.RawMessage
	if err := res.Decode(&raw); err != nil {
		s.log.Warn(ctx, "share listing is not an array", "error", err)
		return []models.ShareLink{}
	}

	links := make([]models.ShareLink, 0, len(raw))
	for _, item := range raw {
		var l models.ShareLink
		if err := json.Unmarshal(item, &l); err != nil {
			s.log.Warn(ctx, "skipping malformed share link", "error", err)
			continue
		}
		if l.ShareID == "" {
			l.ShareID = tempLinkPfx + strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
		}
		if l.FileName == "" {
			l.FileName = unnamedFile
		}
		if l.FileID.IsZero() {
			l.FileID = "0"
		}
		links = append(links, l)
	}
	return links
}

func (s *sharingService) previewLinks(ctx context.Context) []models.ShareLink {
	files, err := s.GetUserFiles(ctx)
	if err != nil {
		s.metrics.BestEffortFailed("listing_fallback")
		s.log.Warn(ctx, "preview links unavailable", "error", err)
		return []models.ShareLink{}
	}
	if len(files) > previewLimit {
		files = files[:previewLimit]
	}

	now := s.now()
	createdAt := now.UTC().Format(time.RFC3339)
	links := make([]models.ShareLink, 0, len(files))
	for i, f := range files {
		fileID := f.FileID
		if fileID.IsZero() {
			fileID = models.ID(strconv.Itoa(i))
		}
		name := f.FileName
		if name == "" {
			name = unnamedFile
		}
		days := previewDays[i%len(previewDays)]
		links = append(links, models.ShareLink{
			ShareID:        tempLinkPfx + fileID.String(),
			FileID:         fileID,
			FileName:       name,
			ExpirationTime: models.UnixSeconds(now.Unix() + days*secondsPerDay),
			CreatedAt:      createdAt,
			Preview:        true,
		})
	}
	return links
}

func (s *sharingService) DeleteShareLink(ctx context.Context, shareID string) error {
	if strings.TrimSpace(shareID) == "" {
		return ErrShareIDRequired
	}
	if strings.HasPrefix(shareID, tempLinkPfx) {
		return ErrPreviewLink
	}
	if _, err := s.api.Request(ctx, "/files/shared/"+url.PathEscape(shareID), gateway.Options{Method: http.MethodDelete}); err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	return nil
}
