package api

import (
	"tributary/app/database"
	"tributary/app/feed"
	"tributary/app/sources"
	"tributary/app/tasks"
)

type Handler struct {
	sourceRepo   database.SourceRepository
	itemRepo     database.ItemRepository
	resolver     *sources.Resolver
	iconResolver *sources.IconResolver
	refresher    *feed.Refresher
	filterer     *feed.Filterer
	scheduler    tasks.TaskSchedulerInterface
}

type createSourceRequest struct {
	Platform string `json:"platform" binding:"required"`
	Input    string `json:"input" binding:"required"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type updateSourceRequest struct {
	Name                 *string  `json:"name"`
	Category             *string  `json:"category"`
	FetchIntervalSeconds *int     `json:"fetch_interval_seconds"`
	RetentionDays        *int     `json:"retention_days"`
	MinRedditScore       *int     `json:"min_reddit_score"`
	SuppressFromMainFeed *bool    `json:"suppress_from_main_feed"`
	ExtractContent       *bool    `json:"extract_content"`
	Enabled              *bool    `json:"enabled"`
	WhitelistKeywords    []string `json:"whitelist_keywords"`
	BlacklistKeywords    []string `json:"blacklist_keywords"`
}

type flagRequest struct {
	Value bool `json:"value"`
}
