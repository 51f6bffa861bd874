package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tributary/app/database"
	"tributary/app/feed"
	"tributary/app/sources"
	"tributary/app/tasks"
)

const defaultItemLimit = 100

func NewHandler(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	resolver *sources.Resolver, iconResolver *sources.IconResolver,
	refresher *feed.Refresher, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		itemRepo:     itemRepo,
		resolver:     resolver,
		iconResolver: iconResolver,
		refresher:    refresher,
		filterer:     filterer,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}
	if itemCount, err := h.itemRepo.GetItemCount(); err == nil {
		health["items"] = itemCount
	}

	c.JSON(http.StatusOK, health)
}

// CreateSource resolves raw user input into a canonical feed endpoint and
// registers the source. Initial ingestion is fire-and-forget: it goes through
// the worker pool so the creating call never blocks on network fetches.
func (h *Handler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	platform := database.Platform(req.Platform)
	if !platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform: " + req.Platform})
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), platform, req.Input)
	if err != nil {
		if isUserInputError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Source resolution failed", "platform", req.Platform, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve source"})
		return
	}

	if existing, err := h.sourceRepo.GetSourceByFeedURL(resolution.FeedURL); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Source already exists", "id": existing.ID})
		return
	}

	source := sources.BuildSource(req.Owner, platform, resolution)
	if req.Name != "" {
		source.Name = req.Name
	}
	source.Category = req.Category

	if err := h.sourceRepo.CreateSource(source); err != nil {
		// The exists check above races concurrent creates; the unique index
		// on feed_url is authoritative.
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Source already exists"})
			return
		}
		slog.Error("Database error", "operation", "create_source", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewRefreshSourceTask(source.ID, h.refresher, h.sourceRepo)); err != nil {
		slog.Warn("Failed to enqueue initial refresh", "source_id", source.ID, "error", err)
	}
	if err := h.scheduler.EnqueueTask(tasks.NewBackfillIconsTask(h.iconResolver, h.sourceRepo)); err != nil {
		slog.Warn("Failed to enqueue icon backfill", "source_id", source.ID, "error", err)
	}

	c.JSON(http.StatusCreated, source)
}

func (h *Handler) ListSources(c *gin.Context) {
	sourceList, err := h.sourceRepo.ListSources(c.Query("owner"))
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sourceList,
		"total":   len(sourceList),
	})
}

func (h *Handler) GetSource(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *Handler) UpdateSource(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Name != nil {
		source.Name = *req.Name
	}
	if req.Category != nil {
		source.Category = *req.Category
	}
	if req.FetchIntervalSeconds != nil {
		source.FetchIntervalSeconds = *req.FetchIntervalSeconds
	}
	if req.RetentionDays != nil {
		source.RetentionDays = *req.RetentionDays
	}
	if req.MinRedditScore != nil {
		source.MinRedditScore = *req.MinRedditScore
	}
	if req.SuppressFromMainFeed != nil {
		source.SuppressFromMainFeed = *req.SuppressFromMainFeed
	}
	if req.ExtractContent != nil {
		source.ExtractContent = *req.ExtractContent
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}
	if req.WhitelistKeywords != nil {
		source.WhitelistKeywords = req.WhitelistKeywords
	}
	if req.BlacklistKeywords != nil {
		source.BlacklistKeywords = req.BlacklistKeywords
	}

	if err := h.sourceRepo.UpdateSource(source); err != nil {
		slog.Error("Database error", "operation", "update_source", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *Handler) DeleteSource(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	if err := h.sourceRepo.DeleteSource(source.ID); err != nil {
		slog.Error("Database error", "operation", "delete_source", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshSource refreshes one source synchronously. Unlike the batch
// endpoint, its error is re-raised to the caller.
func (h *Handler) RefreshSource(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	newCount, err := h.refresher.RefreshSource(c.Request.Context(), source)
	if err != nil {
		slog.Error("Source refresh failed", "source_id", source.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source_id": source.ID,
		"new_items": newCount,
	})
}

// RefreshAll refreshes every enabled source, isolating per-source failures.
// Partial success is the expected steady state; the endpoint itself succeeds
// whenever the batch ran.
func (h *Handler) RefreshAll(c *gin.Context) {
	sourceList, err := h.sourceRepo.ListSources(c.Query("owner"))
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	enabled := make([]database.Source, 0, len(sourceList))
	for _, source := range sourceList {
		if source.Enabled {
			enabled = append(enabled, source)
		}
	}

	result := h.refresher.RefreshAll(c.Request.Context(), enabled)

	errorMessages := make(map[string]string, len(result.Errors))
	for sourceID, refreshErr := range result.Errors {
		errorMessages[sourceID] = refreshErr.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"sources_refreshed": result.SourcesRefreshed,
		"total_new_items":   result.TotalNewItems,
		"errors":            errorMessages,
	})
}

// GetMainFeed returns the aggregated item feed across all non-suppressed
// sources, with each source's keyword filters applied at read time.
func (h *Handler) GetMainFeed(c *gin.Context) {
	sourceList, err := h.sourceRepo.ListSources(c.Query("owner"))
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	limit := queryInt(c, "limit", defaultItemLimit)
	unreadOnly := c.Query("unread") == "true"

	var merged []database.Item
	for i := range sourceList {
		source := &sourceList[i]
		if source.SuppressFromMainFeed || !source.Enabled {
			continue
		}

		items, err := h.itemRepo.GetItemsBySource(source.ID, limit)
		if err != nil {
			slog.Error("Database error", "operation", "get_items", "source_id", source.ID, "error", err)
			continue
		}

		merged = append(merged, h.filterer.Run(items, source)...)
	}

	if unreadOnly {
		unread := merged[:0]
		for _, item := range merged {
			if !item.Read {
				unread = append(unread, item)
			}
		}
		merged = unread
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"items": merged,
		"total": len(merged),
	})
}

func (h *Handler) GetSourceItems(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	items, err := h.itemRepo.GetItemsBySource(source.ID, queryInt(c, "limit", defaultItemLimit))
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": h.filterer.Run(items, source),
	})
}

func (h *Handler) SetItemRead(c *gin.Context) {
	h.setItemFlag(c, h.itemRepo.SetItemRead)
}

func (h *Handler) SetItemSaved(c *gin.Context) {
	h.setItemFlag(c, h.itemRepo.SetItemSaved)
}

func (h *Handler) setItemFlag(c *gin.Context, update func(id string, value bool) error) {
	id := c.Param("id")

	item, err := h.itemRepo.GetItem(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "item_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := update(id, req.Value); err != nil {
		slog.Error("Database error", "operation", "update_item_flag", "item_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) lookupSource(c *gin.Context) (*database.Source, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source id parameter"})
		return nil, false
	}

	source, err := h.sourceRepo.GetSource(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return nil, false
	}

	return source, true
}

func isUserInputError(err error) bool {
	return errors.Is(err, sources.ErrInvalidSourceURL) ||
		errors.Is(err, sources.ErrChannelNotFound) ||
		errors.Is(err, sources.ErrInvalidRedditSource) ||
		errors.Is(err, sources.ErrInvalidBlueskyHandle)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
