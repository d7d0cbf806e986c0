package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ailurusbio/synvectordb/store"
)

// partDetail is the wire form of a part. SequenceLength and GCContent are
// derived on read, never persisted.
type partDetail struct {
	UID              string `json:"uid"`
	Name             string `json:"name"`
	Label            string `json:"label,omitempty"`
	Type             string `json:"type"`
	TypeLevel1       string `json:"type_level_1"`
	TypeLevel2       string `json:"type_level_2"`
	TypeLevel3       string `json:"type_level_3"`
	SourceCollection string `json:"source_collection"`
	SourceName       string `json:"source_name"`
	Description      string `json:"description"`
	Sequence         string `json:"sequence,omitempty"`
	Organism         string `json:"organism,omitempty"`
	ExpressionSystem string `json:"expression_system,omitempty"`

	SequenceLength      int      `json:"sequence_length"`
	CalculatedGCContent *float64 `json:"calculated_gc_content"`
}

func toPartDetail(p *store.Part) partDetail {
	detail := partDetail{
		UID:              p.UID,
		Name:             p.Name,
		Label:            p.Label,
		Type:             p.Type,
		TypeLevel1:       p.TypeLevel1,
		TypeLevel2:       p.TypeLevel2,
		TypeLevel3:       p.TypeLevel3,
		SourceCollection: p.SourceCollection,
		SourceName:       p.SourceName,
		Description:      p.Description,
		Sequence:         p.Sequence,
		Organism:         p.Organism,
		ExpressionSystem: p.ExpressionSystem,
		SequenceLength:   p.SequenceLength(),
	}
	if p.Sequence != "" {
		gc := p.GCContent()
		detail.CalculatedGCContent = &gc
	}
	return detail
}

// GetPart returns one part by UID with derived sequence metrics.
//
// GET /api/v1/parts/:uid
func (s *APIV1Service) GetPart(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uid is required")
	}

	part, err := s.Store.GetPart(c.Request().Context(), &store.FindPart{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load part").SetInternal(err)
	}
	if part == nil {
		return echo.NewHTTPError(http.StatusNotFound, "part not found: "+uid)
	}
	return c.JSON(http.StatusOK, toPartDetail(part))
}

// searchPartsRequest is a structured filter search over the relational
// store, independent of the vector path.
type searchPartsRequest struct {
	UID              string `json:"part_id"`
	Name             string `json:"name"`
	TypeLevel1       string `json:"type_level_1"`
	TypeLevel2       string `json:"type_level_2"`
	SourceCollection string `json:"source_collection"`
	Limit            int    `json:"limit"`
	Offset           int    `json:"offset"`
}

type availableFilters struct {
	Types    []store.NameCount `json:"types"`
	SubTypes []store.NameCount `json:"subtypes"`
	Sources  []store.NameCount `json:"sources"`
}

type searchPartsResponse struct {
	TotalCount       int64            `json:"total_count"`
	Parts            []partDetail     `json:"parts"`
	AvailableFilters availableFilters `json:"available_filters"`
}

// SearchParts lists parts matching structured filters with pagination, and
// returns the filter options the browser can offer next.
//
// POST /api/v1/parts/search
func (s *APIV1Service) SearchParts(c echo.Context) error {
	req := &searchPartsRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	find := &store.FindPart{Limit: &limit, Offset: &offset}
	if req.UID != "" {
		find.UID = &req.UID
	}
	if req.Name != "" {
		find.Name = &req.Name
	}
	if req.TypeLevel1 != "" {
		find.TypeLevel1 = &req.TypeLevel1
	}
	if req.TypeLevel2 != "" {
		find.TypeLevel2 = &req.TypeLevel2
	}
	if req.SourceCollection != "" {
		find.SourceCollection = &req.SourceCollection
	}

	ctx := c.Request().Context()
	parts, err := s.Store.ListParts(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list parts").SetInternal(err)
	}

	countFind := *find
	countFind.Limit, countFind.Offset = nil, nil
	total, err := s.Store.CountParts(ctx, &countFind)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count parts").SetInternal(err)
	}

	stats, err := s.Store.GetPartStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load filter options").SetInternal(err)
	}

	resp := searchPartsResponse{
		TotalCount: total,
		Parts:      make([]partDetail, 0, len(parts)),
		AvailableFilters: availableFilters{
			Types:    stats.Categories,
			SubTypes: stats.SubTypes,
			Sources:  stats.Sources,
		},
	}
	for _, part := range parts {
		resp.Parts = append(resp.Parts, toPartDetail(part))
	}
	return c.JSON(http.StatusOK, resp)
}
