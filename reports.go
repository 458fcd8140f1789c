package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/models/reports"
	"github.com/mmdatafocus/itefm_backend/utils"
	"github.com/mmdatafocus/itefm_backend/workflow"
	"github.com/sirupsen/logrus"
)

var errGenerationInProgress = errors.New("report generation already in progress")

const generationLockTTL = 2 * time.Minute

// generateReports is swapped in tests to force a camp failure.
var generateReports = workflow.GenerateReports

type campGroupRequest struct {
	CampGroup string `json:"camp_group" form:"camp_group" binding:"required"`
}

type campReportView struct {
	models.CampReport
	DownloadURL string `json:"download_url,omitempty"`
}

func reportViews(list []models.CampReport) []campReportView {
	views := make([]campReportView, 0, len(list))
	for _, r := range list {
		v := campReportView{CampReport: r}
		if r.Downloadable() {
			v.DownloadURL = fmt.Sprintf("/api/v1/reports/%s/download", r.Camp)
		}
		views = append(views, v)
	}
	return views
}

func selectCampGroup(ctx context.Context, session *models.ReportSession, name string) error {
	campConfig, err := config.GetCampConfig()
	if err != nil {
		return err
	}
	if _, ok := campConfig.FindGroup(name); !ok {
		return fmt.Errorf("%w: %s", utils.ErrUnknownCampGroup, name)
	}
	if session.CampGroup == name {
		return nil
	}
	session.CampGroup = name
	return session.Save(ctx)
}

// runGeneration builds the reports of every camp in the session's group and
// replaces the session's previous reports. Camp failures are part of the
// returned list, not errors.
func runGeneration(ctx context.Context, session *models.ReportSession) ([]models.CampReport, error) {
	if !session.HasUploads() {
		return nil, utils.ErrMissingUploads
	}
	campConfig, err := config.GetCampConfig()
	if err != nil {
		return nil, err
	}
	group, ok := campConfig.FindGroup(session.CampGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrUnknownCampGroup, session.CampGroup)
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:report:"+session.ID, generationLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, errGenerationInProgress
		}
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := lock.Release(context.Background()); releaseErr != nil {
				config.GetLogger().WithFields(logrus.Fields{"session_id": session.ID}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"session_id": session.ID,
		"username":   username,
		"camp_group": group.Name,
	}).Info("[report.generate]")

	session.GenerateRequested = true
	if err := session.Save(ctx); err != nil {
		return nil, err
	}

	jobData, err := session.GetUpload(ctx, models.UploadKindJob)
	if err != nil {
		return nil, err
	}
	assetData, err := session.GetUpload(ctx, models.UploadKindAsset)
	if err != nil {
		return nil, err
	}

	outputs := generateReports(ctx, workflow.Request{
		JobFile:   jobData,
		AssetFile: assetData,
		Group:     *group,
		Keywords:  campConfig.Keywords,
	})

	list := make([]models.CampReport, 0, len(outputs))
	data := make(map[string][]byte, len(outputs))
	for _, o := range outputs {
		list = append(list, models.CampReport{
			Camp:      o.Camp,
			FileName:  o.FileName,
			Matched:   o.Matched,
			Unmatched: o.Unmatched,
			Total:     o.Total,
			Error:     o.ErrorMessage(),
		})
		if o.Err == nil {
			data[o.Camp] = o.Data
		}
	}
	if err := session.ReplaceReports(ctx, list, data); err != nil {
		return nil, err
	}

	archiveReports(ctx, session, outputs)
	publishReportEvent(ctx, session, list)
	return list, nil
}

func archiveReports(ctx context.Context, session *models.ReportSession, outputs []workflow.CampOutput) {
	if config.ReportArchiveBucket() == "" {
		return
	}
	now := time.Now()
	for _, o := range outputs {
		if o.Err != nil {
			continue
		}
		key := utils.ArchiveObjectKey(now, session.ID, o.FileName)
		if err := utils.ArchiveReport(ctx, key, o.Data); err != nil {
			config.LogError(config.GetLogger(), "reports.go", "archiveReports", "ArchiveReport", key, err)
		}
	}
}

func publishReportEvent(ctx context.Context, session *models.ReportSession, list []models.CampReport) {
	if config.ReportEventsTopic() == "" {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	event := config.ReportEvent{
		SessionId:     session.ID,
		Username:      session.Username,
		CampGroup:     session.CampGroup,
		GeneratedAt:   time.Now().UTC(),
		CorrelationId: cid,
	}
	for _, r := range list {
		event.Camps = append(event.Camps, config.ReportEventCamp{
			Camp:      r.Camp,
			Matched:   r.Matched,
			Unmatched: r.Unmatched,
			Total:     r.Total,
			Error:     r.Error,
		})
	}
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := config.PublishReportEvent(pubCtx, event); err != nil {
		config.LogError(config.GetLogger(), "reports.go", "publishReportEvent", "PublishReportEvent", event.CampGroup, err)
	}
}

// generationStatus maps runGeneration errors to HTTP status codes.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, utils.ErrMissingUploads), errors.Is(err, utils.ErrUnknownCampGroup):
		return http.StatusBadRequest
	case errors.Is(err, errGenerationInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func campGroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		campConfig, err := config.GetCampConfig()
		if err != nil {
			config.LogError(config.GetLogger(), "reports.go", "campGroupsHandler", "GetCampConfig", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "camp configuration unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": campConfig})
	}
}

func sessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := currentSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"session": session,
			"reports": reportViews(session.Reports),
		}})
	}
}

func selectCampGroupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := currentSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req campGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "camp_group is required"})
			return
		}
		if err := selectCampGroup(c.Request.Context(), session, req.CampGroup); err != nil {
			if errors.Is(err, utils.ErrUnknownCampGroup) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config.LogError(config.GetLogger(), "reports.go", "selectCampGroupHandler", "selectCampGroup", req.CampGroup, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": session})
	}
}

func generateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := currentSession(ctx)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if c.Request.ContentLength > 0 {
			var req campGroupRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
			if err := selectCampGroup(ctx, session, req.CampGroup); err != nil {
				c.JSON(generationStatus(err), gin.H{"error": err.Error()})
				return
			}
		}

		list, err := runGeneration(ctx, session)
		if err != nil {
			status := generationStatus(err)
			if status == http.StatusInternalServerError {
				config.LogError(config.GetLogger(), "reports.go", "generateHandler", "runGeneration", session.CampGroup, err)
				c.JSON(status, gin.H{"error": "failed to generate reports"})
				return
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"camp_group": session.CampGroup,
			"reports":    reportViews(list),
		}})
	}
}

func downloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := currentSession(ctx)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		camp := c.Param("camp")
		data, err := session.GetReport(ctx, camp)
		if err != nil {
			if errors.Is(err, utils.ErrReportNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			config.LogError(config.GetLogger(), "reports.go", "downloadHandler", "GetReport", camp, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
			return
		}
		sendReport(c, camp, data)
	}
}

func sendReport(c *gin.Context, camp string, data []byte) {
	fileName := reports.ReportFileName(utils.SanitizeSegment(camp))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, reports.ContentTypeXlsx, data)
}
