package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/utils"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type loginResponse struct {
	Token   string                `json:"token"`
	Session *models.ReportSession `json:"session"`
}

// startSession checks the credentials and opens a new report session.
func startSession(ctx context.Context, req loginRequest) (string, *models.ReportSession, error) {
	if err := utils.CheckCredentials(req.Username, req.Password); err != nil {
		if errors.Is(err, utils.ErrCredentialsNotConfigured) {
			config.LogError(config.GetLogger(), "auth.go", "startSession", "CheckCredentials", nil, err)
		}
		return "", nil, utils.ErrInvalidCredentials
	}

	campConfig, err := config.GetCampConfig()
	if err != nil {
		return "", nil, err
	}
	session := models.NewReportSession(req.Username, campConfig.Groups[0].Name)
	if err := session.Save(ctx); err != nil {
		return "", nil, err
	}

	token, err := utils.JwtGenerate(req.Username, session.ID, config.SessionTTL())
	if err != nil {
		return "", nil, err
	}
	if err := models.StoreSessionToken(ctx, token, session.ID); err != nil {
		return "", nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"session_id": session.ID,
		"username":   req.Username,
	}).Info("[session.start]")
	return token, session, nil
}

// endSession revokes the request's token and drops everything the session stored.
func endSession(ctx context.Context) error {
	if sessionId, ok := utils.GetSessionIdFromContext(ctx); ok {
		session, err := models.GetReportSession(ctx, sessionId)
		switch {
		case err == nil:
			if err := session.Delete(ctx); err != nil {
				return err
			}
		case !errors.Is(err, utils.ErrSessionNotFound):
			return err
		}
	}
	if token, ok := utils.GetTokenFromContext(ctx); ok {
		return models.RevokeSessionToken(ctx, token)
	}
	return nil
}

// currentSession loads the session attached by SessionMiddleware.
func currentSession(ctx context.Context) (*models.ReportSession, error) {
	sessionId, ok := utils.GetSessionIdFromContext(ctx)
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	return models.GetReportSession(ctx, sessionId)
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		token, session, err := startSession(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			config.LogError(config.GetLogger(), "auth.go", "loginHandler", "startSession", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": loginResponse{Token: token, Session: session}})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := endSession(c.Request.Context()); err != nil {
			config.LogError(config.GetLogger(), "auth.go", "logoutHandler", "endSession", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
