package main

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/middlewares"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type loginPage struct {
	Username string
	Error    string
}

type pageReport struct {
	models.CampReport
	DownloadURL string
}

type indexPage struct {
	Username  string
	CampGroup string
	Groups    []config.CampGroup
	JobFile   *models.UploadedFile
	AssetFile *models.UploadedFile
	Reports   []pageReport
	Warning   string
	Error     string
}

func newIndexPage(session *models.ReportSession) (indexPage, error) {
	campConfig, err := config.GetCampConfig()
	if err != nil {
		return indexPage{}, err
	}
	page := indexPage{
		Username:  session.Username,
		CampGroup: session.CampGroup,
		Groups:    campConfig.Groups,
		JobFile:   session.JobFile,
		AssetFile: session.AssetFile,
	}
	// Results are shown only after a generate request in this session.
	if session.GenerateRequested {
		for _, r := range session.Reports {
			p := pageReport{CampReport: r}
			if r.Downloadable() {
				p.DownloadURL = "/reports/" + r.Camp + "/download"
			}
			page.Reports = append(page.Reports, p)
		}
	}
	return page, nil
}

func renderIndex(c *gin.Context, status int, session *models.ReportSession, warning string, errMsg string) {
	page, err := newIndexPage(session)
	if err != nil {
		config.LogError(config.GetLogger(), "pages.go", "renderIndex", "newIndexPage", nil, err)
		c.String(http.StatusInternalServerError, "camp configuration unavailable")
		return
	}
	page.Warning = warning
	page.Error = errMsg
	c.HTML(status, "index.html", page)
}

func loginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetSessionIdFromContext(c.Request.Context()); ok {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		c.HTML(http.StatusOK, "login.html", loginPage{})
	}
}

func loginFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			c.HTML(http.StatusBadRequest, "login.html", loginPage{Username: req.Username, Error: "Username and password are required."})
			return
		}
		token, _, err := startSession(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidCredentials) {
				c.HTML(http.StatusUnauthorized, "login.html", loginPage{Username: req.Username, Error: "Invalid username or password."})
				return
			}
			config.LogError(config.GetLogger(), "pages.go", "loginFormHandler", "startSession", nil, err)
			c.HTML(http.StatusInternalServerError, "login.html", loginPage{Username: req.Username, Error: "Login is unavailable, please try again."})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middlewares.TokenCookieName, token, int(config.SessionTTL().Seconds()), "/", "", config.IsProduction(), true)
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func logoutFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := endSession(c.Request.Context()); err != nil {
			config.LogError(config.GetLogger(), "pages.go", "logoutFormHandler", "endSession", nil, err)
		}
		c.SetCookie(middlewares.TokenCookieName, "", -1, "/", "", config.IsProduction(), true)
		c.Redirect(http.StatusSeeOther, "/login")
	}
}

func indexPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := currentSession(c.Request.Context())
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		renderIndex(c, http.StatusOK, session, "", "")
	}
}

// generateFormHandler takes the camp group and any newly chosen files from
// the form, then runs the same generation as the API.
func generateFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := currentSession(ctx)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}

		if group := c.PostForm("camp_group"); group != "" {
			if err := selectCampGroup(ctx, session, group); err != nil {
				renderIndex(c, generationStatus(err), session, "", err.Error())
				return
			}
		}

		for kind, field := range map[models.UploadKind]string{
			models.UploadKindJob:   "job_file",
			models.UploadKindAsset: "asset_file",
		} {
			fh, err := c.FormFile(field)
			if err != nil {
				// Not chosen: keep the file from an earlier upload, if any.
				continue
			}
			if err := storeUpload(ctx, session, kind, fh); err != nil {
				var invalid *uploadError
				if errors.As(err, &invalid) {
					renderIndex(c, http.StatusBadRequest, session, "", invalid.Error())
					return
				}
				logUploadError(config.GetLogger(), err, string(kind), requestIDFromHeaders(c))
				renderIndex(c, http.StatusInternalServerError, session, "", "Failed to store the uploaded file.")
				return
			}
		}

		if _, err := runGeneration(ctx, session); err != nil {
			switch {
			case errors.Is(err, utils.ErrMissingUploads):
				renderIndex(c, http.StatusBadRequest, session, err.Error(), "")
			case generationStatus(err) == http.StatusInternalServerError:
				config.LogError(config.GetLogger(), "pages.go", "generateFormHandler", "runGeneration", session.CampGroup, err)
				renderIndex(c, http.StatusInternalServerError, session, "", "Failed to generate reports.")
			default:
				renderIndex(c, generationStatus(err), session, "", err.Error())
			}
			return
		}
		renderIndex(c, http.StatusOK, session, "", "")
	}
}
