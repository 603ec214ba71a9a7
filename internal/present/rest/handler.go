package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/internal/present/rest/presenter"
	"github.com/totegamma/transparence/internal/usecase"
	"github.com/totegamma/transparence/schemas"
)

// RealtimeSource streams published events.
type RealtimeSource interface {
	Realtime(ctx context.Context, channels []string, output chan<- transparence.Event)
}

type Handler struct {
	info     domain.Info
	feed     *usecase.FeedUsecase
	evidence *usecase.EvidenceUsecase
	signal   RealtimeSource
}

func NewHandler(
	info domain.Info,
	feed *usecase.FeedUsecase,
	evidence *usecase.EvidenceUsecase,
	signal RealtimeSource,
) *Handler {
	return &Handler{
		info:     info,
		feed:     feed,
		evidence: evidence,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)
	e.GET("/api/v1/info", h.handleInfo)
	e.GET("/api/v1/evidence", h.handleList)
	e.GET("/api/v1/evidence/:id", h.handleGet)
	e.POST("/api/v1/evidence", h.handleSubmit)
	e.POST("/api/v1/evidence/:id/confirm", h.handleConfirm)
	e.POST("/api/v1/journal/refresh", h.handleRefresh)
	e.GET("/api/v1/countries", h.handleCountries)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleHealth(c echo.Context) error {
	remote, local := h.feed.Store().Counts()
	return presenter.OK(c, echo.Map{"status": "ok", "remote": remote, "local": local})
}

func (h *Handler) handleInfo(c echo.Context) error {
	return presenter.OK(c, h.info)
}

func parseFloatParam(c echo.Context, name string) (float64, bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: invalid %s parameter", domain.ErrInvalidZone, name)
	}
	return v, true, nil
}

// parseZone builds a zone from query parameters. A RADIUS zone without
// radiusKm uses the default radius; an explicit one must lie within the
// selectable range.
func parseZone(c echo.Context) (domain.ZoneSpec, error) {
	mode, err := domain.ParseZoneMode(c.QueryParam("mode"))
	if err != nil {
		return domain.ZoneSpec{}, err
	}
	zone := domain.ZoneSpec{}.WithMode(mode)

	switch mode {
	case domain.ZoneCountry:
		if country := strings.TrimSpace(c.QueryParam("country")); country != "" {
			zone = zone.WithCountry(country)
		}
	case domain.ZoneRadius:
		lat, hasLat, err := parseFloatParam(c, "lat")
		if err != nil {
			return domain.ZoneSpec{}, err
		}
		lng, hasLng, err := parseFloatParam(c, "lng")
		if err != nil {
			return domain.ZoneSpec{}, err
		}
		if hasLat != hasLng {
			return domain.ZoneSpec{}, fmt.Errorf("%w: lat and lng must be given together", domain.ErrInvalidZone)
		}
		if hasLat {
			zone = zone.WithCenter(domain.LatLng{Lat: lat, Lng: lng})
		}

		radius, hasRadius, err := parseFloatParam(c, "radiusKm")
		if err != nil {
			return domain.ZoneSpec{}, err
		}
		if hasRadius {
			if radius < domain.MinRadiusKm || radius > domain.MaxRadiusKm {
				return domain.ZoneSpec{}, fmt.Errorf("%w: radiusKm must be between %v and %v", domain.ErrInvalidZone, domain.MinRadiusKm, domain.MaxRadiusKm)
			}
			zone = zone.WithRadius(radius)
		}
	}

	return zone, nil
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	zone, err := parseZone(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	records, fingerprint, err := h.feed.List(ctx, zone)
	if err != nil {
		return presenter.Error(c, err)
	}

	etag := `"` + fingerprint + `"`
	c.Response().Header().Set("ETag", etag)
	if match := c.Request().Header.Get("If-None-Match"); match == etag {
		return c.NoContent(http.StatusNotModified)
	}

	return presenter.OK(c, records)
}

func (h *Handler) handleGet(c echo.Context) error {
	record, err := h.feed.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (h *Handler) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "file is required")
	}

	lat, err := strconv.ParseFloat(c.FormValue("lat"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(c.FormValue("lng"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid lng parameter")
	}

	body, err := file.Open()
	if err != nil {
		return presenter.InternalError(c, err)
	}
	defer body.Close()

	record, err := h.evidence.Submit(ctx, usecase.SubmitInput{
		Filename:       file.Filename,
		ContentType:    file.Header.Get(echo.HeaderContentType),
		Body:           body,
		Title:          strings.TrimSpace(c.FormValue("title")),
		Description:    strings.TrimSpace(c.FormValue("description")),
		Tags:           splitTags(c.FormValue("tags")),
		Lat:            lat,
		Lng:            lng,
		LocationSource: domain.ParseLocationSource(c.FormValue("locationSource")),
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.Created(c, record)
}

type confirmRequest struct {
	Hash string `json:"hash"`
}

func (h *Handler) handleConfirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.evidence.Confirm(c.Request().Context(), c.Param("id"), strings.TrimSpace(req.Hash))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func (h *Handler) handleRefresh(c echo.Context) error {
	n, err := h.feed.Refresh(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error(), "records": 0})
	}
	return presenter.OK(c, echo.Map{"status": "ok", "records": n})
}

func (h *Handler) handleCountries(c echo.Context) error {
	return presenter.OK(c, h.feed.CountryNames(c.Request().Context()))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan transparence.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.signal.Realtime(ctx, []string{schemas.ChannelEvidence}, output)
	}()
	defer func() {
		cancel()
		<-done
	}()

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
