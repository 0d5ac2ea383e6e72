package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/fhir/repo"
)

// Handler serves the REST resource endpoints.
type Handler struct {
	repo *repo.Repository
}

func NewHandler(r *repo.Repository) *Handler {
	return &Handler{repo: r}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/:type", h.createResource)
	g.GET("/:type", h.searchResources)
	g.GET("/:type/:id", h.readResource)
	g.PUT("/:type/:id", h.updateResource)
	g.PATCH("/:type/:id", h.patchResource)
	g.DELETE("/:type/:id", h.deleteResource)
	g.GET("/:type/:id/_history", h.readHistory)
	g.GET("/:type/:id/_history/:vid", h.readVersion)
}

func (h *Handler) createResource(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeOutcome(c, fhir.BadRequestError("read body: %v", err))
	}
	res, err := fhir.ParseResource(body)
	if err != nil {
		return writeOutcome(c, fhir.BadRequestError("invalid resource body"))
	}
	if res.Type() != c.Param("type") {
		return writeOutcome(c, fhir.BadRequestError("resourceType does not match URL"))
	}

	created, err := h.repo.Create(c.Request().Context(), securityContext(c), res)
	if err != nil {
		return writeOutcome(c, err)
	}
	c.Response().Header().Set("Location", "/fhir/R4/"+created.Type()+"/"+created.ID())
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) readResource(c echo.Context) error {
	res, err := h.repo.Read(c.Request().Context(), securityContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) updateResource(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeOutcome(c, fhir.BadRequestError("read body: %v", err))
	}
	res, err := fhir.ParseResource(body)
	if err != nil {
		return writeOutcome(c, fhir.BadRequestError("invalid resource body"))
	}
	if res.Type() != c.Param("type") {
		return writeOutcome(c, fhir.BadRequestError("resourceType does not match URL"))
	}
	switch res.ID() {
	case "":
		res.SetID(c.Param("id"))
	case c.Param("id"):
	default:
		return writeOutcome(c, fhir.BadRequestError("resource id does not match URL"))
	}

	updated, err := h.repo.Update(c.Request().Context(), securityContext(c), res)
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) patchResource(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeOutcome(c, fhir.BadRequestError("read body: %v", err))
	}
	ops, err := fhir.ParsePatch(body)
	if err != nil {
		return writeOutcome(c, err)
	}

	patched, err := h.repo.Patch(c.Request().Context(), securityContext(c), c.Param("type"), c.Param("id"), ops)
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, patched)
}

func (h *Handler) deleteResource(c echo.Context) error {
	err := h.repo.Delete(c.Request().Context(), securityContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) searchResources(c echo.Context) error {
	req, err := fhir.ParseSearchRequest(h.repo.Catalog(), c.Param("type"), c.QueryParams())
	if err != nil {
		return writeOutcome(c, err)
	}
	result, err := h.repo.Search(c.Request().Context(), securityContext(c), req)
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, searchBundle(result))
}

func (h *Handler) readHistory(c echo.Context) error {
	entries, err := h.repo.ReadHistory(c.Request().Context(), securityContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, historyBundle(c.Param("type"), c.Param("id"), entries))
}

func (h *Handler) readVersion(c echo.Context) error {
	res, err := h.repo.ReadVersion(c.Request().Context(), securityContext(c), c.Param("type"), c.Param("id"), c.Param("vid"))
	if err != nil {
		return writeOutcome(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Bundle is the list envelope for search and history responses.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Resource fhir.Resource        `json:"resource,omitempty"`
	Request  *BundleEntryRequest  `json:"request,omitempty"`
	Response *BundleEntryResponse `json:"response,omitempty"`
}

type BundleEntryRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleEntryResponse struct {
	LastModified string `json:"lastModified,omitempty"`
	Etag         string `json:"etag,omitempty"`
}

func searchBundle(result *repo.SearchResult) Bundle {
	b := Bundle{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        &result.Total,
		Entry:        make([]BundleEntry, 0, len(result.Resources)),
	}
	for _, res := range result.Resources {
		b.Entry = append(b.Entry, BundleEntry{Resource: res})
	}
	return b
}

func historyBundle(resourceType, id string, entries []repo.HistoryEntry) Bundle {
	b := Bundle{
		ResourceType: "Bundle",
		Type:         "history",
		Entry:        make([]BundleEntry, 0, len(entries)),
	}
	url := resourceType + "/" + id
	for _, e := range entries {
		entry := BundleEntry{
			Resource: e.Resource,
			Response: &BundleEntryResponse{
				LastModified: e.LastUpdated.Format(time.RFC3339Nano),
				Etag:         `W/"` + e.VersionID + `"`,
			},
		}
		method := http.MethodPut
		if e.Deleted {
			method = http.MethodDelete
		}
		entry.Request = &BundleEntryRequest{Method: method, URL: url}
		b.Entry = append(b.Entry, entry)
	}
	return b
}

// writeOutcome maps a repository outcome onto an HTTP response. The no-op
// write outcome responds 200 with the unchanged current version.
func writeOutcome(c echo.Context, err error) error {
	if current, ok := fhir.IsNotModified(err); ok {
		return c.JSON(http.StatusOK, current)
	}

	var status int
	switch fhir.KindOf(err) {
	case fhir.OutcomeValidationError, fhir.OutcomeBadRequest:
		status = http.StatusBadRequest
	case fhir.OutcomeNotFound:
		status = http.StatusNotFound
	case fhir.OutcomeForbidden:
		status = http.StatusForbidden
	case fhir.OutcomeConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	return c.JSON(status, operationOutcome(err))
}

// operationOutcome renders the error body. Internal causes are not leaked.
func operationOutcome(err error) fhir.Resource {
	kind := fhir.KindOf(err)
	diagnostics := "internal error"
	if kind != fhir.OutcomeInternal {
		diagnostics = err.Error()
	}
	return fhir.Resource{
		"resourceType": "OperationOutcome",
		"issue": []any{
			map[string]any{
				"severity":    "error",
				"code":        kind.String(),
				"diagnostics": diagnostics,
			},
		},
	}
}
