package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/dbsec-lab/importer"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
	"github.com/vnkhanh/dbsec-lab/ws"
)

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file attached"})
		return
	}
	if h.MaxUploadBytes > 0 && file.Size > h.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File exceeds %dMB", h.MaxUploadBytes>>20)})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer f.Close()

	key := utils.UploadKey(file.Filename, h.now())
	contentType := utils.DetectContentType(file.Filename, file.Header.Get("Content-Type"))
	url, err := h.Objects.Upload(c.Request.Context(), key, contentType, f)
	if err != nil {
		h.Logger.Error().Stack().Err(err).Str("key", key).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	h.Logger.Info().Str("key", key).Int64("size", file.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, gin.H{
		"message":  "File uploaded successfully",
		"url":      url,
		"key":      key,
		"filename": file.Filename,
	})
}

// ExportContent dumps every record, hidden ones included, as a downloadable JSON file.
func (h *Handler) ExportContent(c *gin.Context) {
	items, err := h.Contents.List(c.Request.Context(), store.ContentFilter{})
	if err != nil {
		h.storeError(c, err, "")
		return
	}

	now := h.now()
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=database-security-lab-export-%s.json", now.Format("20060102")))
	c.JSON(http.StatusOK, gin.H{
		"export_date":   now,
		"content_items": items,
	})
}

// ImportLegacy loads a migration snapshot from the request body into the store.
func (h *Handler) ImportLegacy(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	snap, err := importer.LoadSnapshot(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Snapshot exceeds %dMB", h.MaxUploadBytes>>20)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot document"})
		return
	}

	records := snap.RecordSet().Records()
	result := importer.SaveAll(c.Request.Context(), h.Contents, records, h.Logger)
	h.Logger.Info().
		Int("saved", result.Saved).
		Int("failed", len(result.Failed)).
		Str("by", c.GetString("username")).
		Msg("snapshot imported")
	h.notify(ws.ActionImported, "")

	c.JSON(http.StatusOK, gin.H{
		"message":    "Import finished",
		"total":      len(records),
		"saved":      result.Saved,
		"failed":     len(result.Failed),
		"failed_ids": result.Failed,
	})
}
