package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/utils"
)

type UploadKind string

const (
	UploadKindJob   UploadKind = "job"
	UploadKindAsset UploadKind = "asset"
)

func (k UploadKind) IsValid() bool {
	return k == UploadKindJob || k == UploadKindAsset
}

type UploadedFile struct {
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CampReport describes the last generated report of a camp. Error is the
// user-facing message of a failed camp; a failed camp has no download.
type CampReport struct {
	Camp      string `json:"camp"`
	FileName  string `json:"file_name"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

func (r CampReport) Downloadable() bool {
	return r.Error == ""
}

// ReportSession is everything a logged-in user has selected and produced.
// It lives in the session store and expires with the session.
type ReportSession struct {
	ID                string        `json:"id"`
	Username          string        `json:"username"`
	CampGroup         string        `json:"camp_group"`
	JobFile           *UploadedFile `json:"job_file"`
	AssetFile         *UploadedFile `json:"asset_file"`
	GenerateRequested bool          `json:"generate_requested"`
	Reports           []CampReport  `json:"reports"`
	GeneratedAt       *time.Time    `json:"generated_at"`
	CreatedAt         time.Time     `json:"created_at"`
}

func NewReportSession(username string, campGroup string) *ReportSession {
	return &ReportSession{
		ID:        uuid.NewString(),
		Username:  username,
		CampGroup: campGroup,
		CreatedAt: time.Now().UTC(),
	}
}

func sessionKey(id string) string {
	return "ReportSession:" + id
}

func uploadKey(sessionId string, kind UploadKind) string {
	return fmt.Sprintf("Upload:%s:%s", sessionId, kind)
}

func reportKey(sessionId string, camp string) string {
	return fmt.Sprintf("Report:%s:%s", sessionId, camp)
}

func tokenKey(token string) string {
	return "Token:" + token
}

func GetReportSession(ctx context.Context, id string) (*ReportSession, error) {
	var s ReportSession
	ok, err := config.GetRedisObject(ctx, sessionKey(id), &s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	return &s, nil
}

// Save writes the session and restarts its expiry.
func (s *ReportSession) Save(ctx context.Context) error {
	return config.SetRedisObject(ctx, sessionKey(s.ID), s, config.SessionTTL())
}

// Upload returns the recorded metadata of kind, or nil before it is uploaded.
func (s *ReportSession) Upload(kind UploadKind) *UploadedFile {
	if kind == UploadKindJob {
		return s.JobFile
	}
	return s.AssetFile
}

func (s *ReportSession) HasUploads() bool {
	return s.JobFile != nil && s.AssetFile != nil
}

func (s *ReportSession) FindReport(camp string) (*CampReport, bool) {
	for i := range s.Reports {
		if s.Reports[i].Camp == camp {
			return &s.Reports[i], true
		}
	}
	return nil, false
}

// SaveUpload stores the file content and records it on the session.
func (s *ReportSession) SaveUpload(ctx context.Context, kind UploadKind, fileName string, data []byte) error {
	if err := config.SetRedisBytes(ctx, uploadKey(s.ID, kind), data, config.SessionTTL()); err != nil {
		return err
	}
	f := &UploadedFile{FileName: fileName, Size: int64(len(data)), UploadedAt: time.Now().UTC()}
	if kind == UploadKindJob {
		s.JobFile = f
	} else {
		s.AssetFile = f
	}
	return s.Save(ctx)
}

func (s *ReportSession) GetUpload(ctx context.Context, kind UploadKind) ([]byte, error) {
	data, ok, err := config.GetRedisBytes(ctx, uploadKey(s.ID, kind))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s file expired, upload it again", kind)
	}
	return data, nil
}

// ReplaceReports drops the previous generation's workbooks and stores the
// new ones. data is keyed by camp.
func (s *ReportSession) ReplaceReports(ctx context.Context, reports []CampReport, data map[string][]byte) error {
	stale := make([]string, 0, len(s.Reports))
	for _, r := range s.Reports {
		stale = append(stale, reportKey(s.ID, r.Camp))
	}
	if err := config.RemoveRedisKey(ctx, stale...); err != nil {
		return err
	}
	for camp, d := range data {
		if err := config.SetRedisBytes(ctx, reportKey(s.ID, camp), d, config.SessionTTL()); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	s.Reports = reports
	s.GeneratedAt = &now
	return s.Save(ctx)
}

func (s *ReportSession) GetReport(ctx context.Context, camp string) ([]byte, error) {
	r, ok := s.FindReport(camp)
	if !ok || !r.Downloadable() {
		return nil, utils.ErrReportNotFound
	}
	data, ok, err := config.GetRedisBytes(ctx, reportKey(s.ID, camp))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrReportNotFound
	}
	return data, nil
}

// Delete removes the session with its uploads and reports.
func (s *ReportSession) Delete(ctx context.Context) error {
	keys := []string{sessionKey(s.ID), uploadKey(s.ID, UploadKindJob), uploadKey(s.ID, UploadKindAsset)}
	for _, r := range s.Reports {
		keys = append(keys, reportKey(s.ID, r.Camp))
	}
	return config.RemoveRedisKey(ctx, keys...)
}

func StoreSessionToken(ctx context.Context, token string, sessionId string) error {
	return config.SetRedisValue(ctx, tokenKey(token), sessionId, config.SessionTTL())
}

// LookupSessionToken returns the session id a token was issued for.
func LookupSessionToken(ctx context.Context, token string) (string, bool, error) {
	return config.GetRedisValue(ctx, tokenKey(token))
}

func RevokeSessionToken(ctx context.Context, token string) error {
	return config.RemoveRedisKey(ctx, tokenKey(token))
}
