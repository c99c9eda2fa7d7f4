// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the choropleth layers over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/choropleth"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/spatial"
	"github.com/ts2g/etabmap/store"
)

// Map defaults handed to the renderer.
const (
	DefaultCenterLat = 46.8
	DefaultCenterLng = 2.5
	DefaultZoom      = 5
)

// Server serves the choropleth layers of a loaded directory over HTTP.
type Server struct {
	establishments []*annuaire.Establishment
	areas          map[geo.Level][]*geo.Area
	repo           store.Repository
}

// NewServer serves the given directory and areas. repo may be nil, in which
// case snapshots are unavailable.
func NewServer(establishments []*annuaire.Establishment, areas map[geo.Level][]*geo.Area, repo store.Repository) *Server {
	return &Server{
		establishments: establishments,
		areas:          areas,
		repo:           repo,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/levels", s.listLevels)
	api.GET("/layers/:level", s.getLayer)
	api.GET("/counts/:level", s.getCounts)
	api.GET("/locate", s.locate)
	api.GET("/snapshots/:level", s.getSnapshot)

	return r
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// LevelInfo describes an administrative level and how many areas it holds.
type LevelInfo struct {
	ID    geo.Level `json:"id"`
	Label string    `json:"label"`
	Areas int       `json:"areas"`
}

// FilterInfo describes a status filter.
type FilterInfo struct {
	ID    annuaire.Filter `json:"id"`
	Label string          `json:"label"`
}

// LevelsResponse is the body of GET /api/levels.
type LevelsResponse struct {
	Levels  []LevelInfo  `json:"levels"`
	Filters []FilterInfo `json:"filters"`
	Center  [2]float64   `json:"center"`
	Zoom    int          `json:"zoom"`
}

func (s *Server) listLevels(ctx *gin.Context) {
	resp := LevelsResponse{
		Center: [2]float64{DefaultCenterLat, DefaultCenterLng},
		Zoom:   DefaultZoom,
	}

	for _, l := range geo.Levels() {
		if areas, ok := s.areas[l]; ok {
			resp.Levels = append(resp.Levels, LevelInfo{ID: l, Label: l.Label(), Areas: len(areas)})
		}
	}

	for _, f := range annuaire.Filters() {
		resp.Filters = append(resp.Filters, FilterInfo{ID: f, Label: f.Label()})
	}

	ctx.JSON(http.StatusOK, resp)
}

// params parses the level path parameter and the status query parameter,
// answering 400 on failure.
func (s *Server) params(ctx *gin.Context) (geo.Level, annuaire.Filter, bool) {
	level, err := geo.ParseLevel(ctx.Param("level"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return "", "", false
	}

	filter, err := annuaire.ParseFilter(ctx.Query("status"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return "", "", false
	}

	if _, ok := s.areas[level]; !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no areas loaded for " + string(level)})

		return "", "", false
	}

	return level, filter, true
}

func (s *Server) layer(level geo.Level, filter annuaire.Filter) *choropleth.Layer {
	return choropleth.Build(s.establishments, s.areas[level], level, filter)
}

func (s *Server) getLayer(ctx *gin.Context) {
	level, filter, ok := s.params(ctx)
	if !ok {
		return
	}

	ctx.Header("Content-Type", "application/geo+json")
	ctx.JSON(http.StatusOK, s.layer(level, filter).FeatureCollection())
}

// CountEntry is the count of one area, with its H3 cell at resolution 4.
type CountEntry struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Cell  string `json:"h3"`
}

// CountsResponse is the body of GET /api/counts/:level.
type CountsResponse struct {
	Level     geo.Level             `json:"level"`
	Filter    annuaire.Filter       `json:"status"`
	Total     int                   `json:"total"`
	Matched   int                   `json:"matched"`
	Max       int                   `json:"max"`
	Entries   []CountEntry          `json:"entries"`
	Unmatched []choropleth.KeyCount `json:"unmatched"`
}

func (s *Server) getCounts(ctx *gin.Context) {
	level, filter, ok := s.params(ctx)
	if !ok {
		return
	}

	layer := s.layer(level, filter)

	resp := CountsResponse{
		Level:     level,
		Filter:    filter,
		Total:     layer.Total,
		Matched:   layer.Matched,
		Max:       layer.Max(),
		Entries:   make([]CountEntry, 0, len(layer.Entries)),
		Unmatched: layer.Unmatched,
	}

	if resp.Unmatched == nil {
		resp.Unmatched = []choropleth.KeyCount{}
	}

	for _, e := range layer.Ranked() {
		resp.Entries = append(resp.Entries, CountEntry{
			Key:   e.Area.Key,
			Name:  e.Area.Name,
			Count: e.Count,
			Cell:  choropleth.CellString(e.Area.Cell),
		})
	}

	ctx.JSON(http.StatusOK, resp)
}

// LocatedArea is an area found by GET /api/locate. Inside is false when the
// point fell in no area and the nearest centroid was used.
type LocatedArea struct {
	Level  geo.Level `json:"level"`
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Inside bool      `json:"inside"`
}

func (s *Server) locate(ctx *gin.Context) {
	lat, errLat := strconv.ParseFloat(ctx.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(ctx.Query("lng"), 64)

	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})

		return
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	ret := []LocatedArea{}

	for _, level := range geo.Levels() {
		area, inside := geo.Locate(s.areas[level], p)
		if area == nil {
			continue
		}

		ret = append(ret, LocatedArea{Level: level, Key: area.Key, Name: area.Name, Inside: inside})
	}

	ctx.JSON(http.StatusOK, ret)
}

func (s *Server) getSnapshot(ctx *gin.Context) {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})

		return
	}

	level, err := geo.ParseLevel(ctx.Param("level"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	filter, err := annuaire.ParseFilter(ctx.Query("status"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	snapshot, err := s.repo.LatestSnapshot(ctx.Request.Context(), level, filter)
	if errors.Is(err, store.ErrNoSnapshot) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}
