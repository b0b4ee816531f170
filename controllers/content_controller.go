package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/ws"
)

type CreateContentInput struct {
	Title       string             `json:"title" binding:"required"`
	ContentType models.ContentType `json:"content_type" binding:"required"`
	ParentID    *string            `json:"parent_id"`
	Order       int                `json:"order"`
	IsHidden    bool               `json:"is_hidden"`
	Content     string             `json:"content"`
}

// ==================== PUBLIC ====================

// Home lists the visible top-level exercises.
func (h *Handler) Home(c *gin.Context) {
	exercises, err := h.Contents.List(c.Request.Context(), store.ContentFilter{
		ContentType: models.ContentExercise,
		TopLevel:    true,
		SkipHidden:  true,
	})
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exercises": exercises})
}

// visible loads id for a public read. Hidden records look exactly like missing ones.
func (h *Handler) visible(c *gin.Context, id string, types ...models.ContentType) (*models.ContentRecord, bool) {
	rec, err := h.Contents.Get(c.Request.Context(), id)
	if err == nil && rec.IsHidden {
		err = store.ErrNotFound
	}
	if err == nil && len(types) > 0 {
		err = store.ErrNotFound
		for _, t := range types {
			if rec.ContentType == t {
				err = nil
				break
			}
		}
	}
	if err != nil {
		h.storeError(c, err, "Content not found")
		return nil, false
	}
	return rec, true
}

func (h *Handler) GetExercise(c *gin.Context) {
	exercise, ok := h.visible(c, c.Param("id"), models.ContentExercise)
	if !ok {
		return
	}

	children, err := h.Contents.List(c.Request.Context(), store.ContentFilter{
		ParentID:   exercise.ID,
		SkipHidden: true,
	})
	if err != nil {
		h.storeError(c, err, "")
		return
	}

	sections := []models.ContentRecord{}
	steps := []models.ContentRecord{}
	references := []models.ContentRecord{}
	for _, child := range children {
		switch child.ContentType {
		case models.ContentExercise:
			sections = append(sections, child)
		case models.ContentStep:
			steps = append(steps, child)
		case models.ContentReference:
			references = append(references, child)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"exercise":   exercise,
		"sections":   sections,
		"steps":      steps,
		"references": references,
	})
}

// GetStep serves a step or a references page together with its parent. An orphaned step
// still renders, with a null parent.
func (h *Handler) GetStep(c *gin.Context) {
	step, ok := h.visible(c, c.Param("id"), models.ContentStep, models.ContentReference)
	if !ok {
		return
	}

	var parent *models.ContentRecord
	if !step.IsTopLevel() {
		p, err := h.Contents.Get(c.Request.Context(), step.Parent())
		switch {
		case err == nil:
			if !p.IsHidden {
				parent = p
			}
		case errors.Is(err, store.ErrNotFound):
			h.Logger.Warn().Str("id", step.ID).Str("parent_id", step.Parent()).Msg("step has no parent")
		default:
			h.storeError(c, err, "")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"step":   step,
		"parent": parent,
	})
}

func (h *Handler) ExerciseSteps(c *gin.Context) {
	steps, err := h.Contents.List(c.Request.Context(), store.ContentFilter{
		ParentID:    c.Param("id"),
		ContentType: models.ContentStep,
		SkipHidden:  true,
	})
	if err != nil {
		h.storeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

// ==================== ADMIN ====================

func (h *Handler) AdminDashboard(c *gin.Context) {
	items, err := h.Contents.List(c.Request.Context(), store.ContentFilter{})
	if err != nil {
		h.storeError(c, err, "")
		return
	}

	stats := map[string]int{"exercises": 0, "steps": 0, "references": 0, "hidden": 0}
	for _, item := range items {
		switch item.ContentType {
		case models.ContentExercise:
			stats["exercises"]++
		case models.ContentStep:
			stats["steps"]++
		case models.ContentReference:
			stats["references"]++
		}
		if item.IsHidden {
			stats["hidden"]++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          c.GetString("username"),
		"stats":         stats,
		"content_items": items,
	})
}

// NewContentID builds "<type>_<yyyymmdd_hhmmss>_<8 hex>" for admin-created records.
func (h *Handler) NewContentID(t models.ContentType) string {
	return fmt.Sprintf("%s_%s_%s", t, h.now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

func (h *Handler) CreateContent(c *gin.Context) {
	var input CreateContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.ContentType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_type must be one of exercise, step, reference"})
		return
	}

	var parentID *string
	if input.ParentID != nil && strings.TrimSpace(*input.ParentID) != "" {
		id := strings.TrimSpace(*input.ParentID)
		if _, err := h.Contents.Get(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Parent content not found"})
				return
			}
			h.storeError(c, err, "")
			return
		}
		parentID = &id
	}

	now := h.now()
	rec := models.ContentRecord{
		ID:          h.NewContentID(input.ContentType),
		Title:       input.Title,
		ContentType: input.ContentType,
		ParentID:    parentID,
		Order:       input.Order,
		IsHidden:    input.IsHidden,
		Content:     input.Content,
		CreatedBy:   c.GetString("username"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Contents.Put(c.Request.Context(), &rec); err != nil {
		h.storeError(c, err, "")
		return
	}

	h.Logger.Info().Str("id", rec.ID).Str("by", rec.CreatedBy).Msg("content created")
	h.notify(ws.ActionCreated, rec.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Content created",
		"id":      rec.ID,
		"content": rec,
	})
}

func (h *Handler) UpdateContent(c *gin.Context) {
	var patch models.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// an empty patch still refreshes updated_at
	rec, err := h.Contents.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.storeError(c, err, "Content not found")
		return
	}

	h.notify(ws.ActionUpdated, rec.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Content updated",
		"content": rec,
	})
}

// DeleteContent removes a single record; its children stay and become orphans.
func (h *Handler) DeleteContent(c *gin.Context) {
	id := c.Param("id")
	if err := h.Contents.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "Content not found")
		return
	}

	h.Logger.Info().Str("id", id).Str("by", c.GetString("username")).Msg("content deleted")
	h.notify(ws.ActionDeleted, id)
	c.JSON(http.StatusOK, gin.H{"message": "Content deleted"})
}
