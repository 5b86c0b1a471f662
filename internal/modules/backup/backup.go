package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eduflash/core/internal/config"
	"github.com/eduflash/core/internal/pkg/response"
)

const backupDir = "./backups"

// tableNames lists all tables to include in backups.
var tableNames = []string{"users", "user_sessions", "questions", "leaderboard"}

// Service creates and restores ZIP archives of the quiz database.
type Service struct {
	db     *gorm.DB
	cfg    config.BackupConfig
	logger *zap.Logger
}

func NewService(db *gorm.DB, cfg config.BackupConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, logger: logger}
}

type backupItem struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}

// CreateZip exports every backed-up table as JSON into a ZIP archive.
func (s *Service) CreateZip() (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	for _, table := range tableNames {
		var rows []map[string]interface{}
		if err := s.db.Table(table).Find(&rows).Error; err != nil {
			s.logger.Warn("backup: dump table failed", zap.String("table", table), zap.Error(err))
			continue
		}
		data, err := json.Marshal(rows)
		if err != nil {
			continue
		}
		f, err := w.Create(table + ".json")
		if err != nil {
			continue
		}
		f.Write(data)
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// CreateLocal writes a backup ZIP into the local backup directory and
// returns its filename.
func (s *Service) CreateLocal(now time.Time) (string, *bytes.Buffer, error) {
	buf, err := s.CreateZip()
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", nil, err
	}
	filename := fmt.Sprintf("backup-%s.zip", now.Format("2006-01-02T15-04-05"))
	if err := os.WriteFile(filepath.Join(backupDir, filename), buf.Bytes(), 0o644); err != nil {
		return "", nil, err
	}
	return filename, buf, nil
}

// Run creates a local backup and, when configured, uploads it to S3. It
// is the entry point used by the scheduler.
func (s *Service) Run(ctx context.Context) error {
	now := time.Now()
	filename, buf, err := s.CreateLocal(now)
	if err != nil {
		return err
	}
	s.logger.Info("backup created", zap.String("filename", filename))

	if s.cfg.Bucket == "" {
		return nil
	}
	uploader, err := newS3Uploader(s.cfg)
	if err != nil {
		return err
	}
	key := buildObjectKey(s.cfg.Prefix, filename, now)
	if err := uploader.Upload(ctx, key, buf.Bytes()); err != nil {
		return err
	}
	s.logger.Info("backup uploaded", zap.String("key", key))
	return nil
}

// restoreFromZip imports JSON table dumps from a backup ZIP. Tables
// outside the allow list are skipped.
func (s *Service) restoreFromZip(zr *zip.Reader) error {
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, _ := io.ReadAll(rc)
		rc.Close()

		name := strings.TrimSuffix(f.Name, ".json")
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}

		allowed := false
		for _, t := range tableNames {
			if name == t {
				allowed = true
				break
			}
		}
		if !allowed {
			continue
		}

		var rows []map[string]interface{}
		if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
			continue
		}

		s.db.Exec("DELETE FROM " + name)
		for _, row := range rows {
			s.db.Table(name).Create(row)
		}
	}
	return nil
}

// Handler exposes backup management endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/backups", authMW)

	g.GET("", h.list)
	g.GET("/new", h.createAndDownload)
	g.GET("/:filename", h.download)
	g.POST("/upload-to-s3", h.uploadToS3)
	g.PATCH("/rollback/:filename", h.rollback)
	g.DELETE("/:filename", h.deleteOne)
}

// GET /backups
func (h *Handler) list(c *gin.Context) {
	response.OK(c, listBackups())
}

func listBackups() []backupItem {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return []backupItem{}
	}
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return []backupItem{}
	}
	items := []backupItem{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, backupItem{Filename: e.Name(), Size: formatSize(info.Size())})
	}
	return items
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// GET /backups/new
func (h *Handler) createAndDownload(c *gin.Context) {
	filename, buf, err := h.svc.CreateLocal(time.Now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// GET /backups/:filename
func (h *Handler) download(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if !strings.HasSuffix(filename, ".zip") {
		response.BadRequest(c, "invalid filename")
		return
	}
	data, err := os.ReadFile(filepath.Join(backupDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/zip", data)
}

// POST /backups/upload-to-s3
func (h *Handler) uploadToS3(c *gin.Context) {
	if h.svc.cfg.Bucket == "" {
		response.BadRequest(c, "s3 backup is not configured")
		return
	}
	if err := h.svc.Run(c.Request.Context()); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// PATCH /backups/rollback/:filename
func (h *Handler) rollback(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	data, err := os.ReadFile(filepath.Join(backupDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		response.BadRequest(c, "invalid zip file")
		return
	}
	if err := h.svc.restoreFromZip(zr); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "rollback successful"})
}

// DELETE /backups/:filename
func (h *Handler) deleteOne(c *gin.Context) {
	filename := strings.TrimSpace(filepath.Base(c.Param("filename")))
	if filename == "" || !strings.HasSuffix(filename, ".zip") {
		response.BadRequest(c, "invalid filename")
		return
	}
	_ = os.Remove(filepath.Join(backupDir, filename))
	response.NoContent(c)
}

func buildObjectKey(prefix, filename string, now time.Time) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "backups"
	}
	return fmt.Sprintf("%s/%s/%s/%s", prefix, now.Format("2006"), now.Format("01"), filename)
}
