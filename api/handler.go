package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"move-cost/adapters/bulk"
	"move-cost/adapters/distance"
	"move-cost/core/pricing"
	"move-cost/core/types"
	cerrors "move-cost/internal/errors"
)

// DistanceUnresolvedMessage is returned when no resolver can measure a move
const DistanceUnresolvedMessage = "Could not calculate distance between locations. Please provide distance manually."

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

// handleCalculate handles POST /api/v1/calculate
func (s *Server) handleCalculate(c *gin.Context) {
	start := time.Now()

	var body CalculateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, bindError(err))
		return
	}

	req := body.MoveRequest()
	meta := &ResponseMetadata{RequestID: requestID(c), EngineVersion: s.version}

	if req.DistanceMiles == 0 {
		// validate everything but distance before spending a lookup
		probe := req
		probe.DistanceMiles = 1
		if err := pricing.ValidateRequest(probe); err != nil {
			s.fail(c, err)
			return
		}

		res, err := s.resolveDistance(c.Request.Context(), req.Origin, req.Destination)
		if err != nil {
			s.fail(c, err)
			return
		}
		req.DistanceMiles = res.Miles
		meta.DistanceSource = string(res.Source)
		meta.DistanceCached = res.Cached
	} else {
		meta.DistanceSource = string(distance.SourceManual)
	}

	result, err := s.pipeline.Price(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !body.IncludeLineage {
		result.Lineage = nil
	}

	meta.RateTableHash = result.RateTable.Hash
	meta.DurationMs = time.Since(start).Milliseconds()
	c.JSON(http.StatusOK, Response{Success: true, Result: result, Metadata: meta})
}

func (s *Server) resolveDistance(ctx context.Context, origin, destination string) (distance.Result, error) {
	if s.resolver == nil {
		return distance.Result{}, cerrors.Distance(DistanceUnresolvedMessage, distance.ErrUnresolved)
	}

	res, err := s.resolver.Resolve(ctx, origin, destination)
	if err != nil {
		s.metrics.ObserveDistance("unresolved", err)
		if cerrors.IsType(err, cerrors.TypeInput) {
			return distance.Result{}, err
		}
		s.logger.Info("distance unresolved",
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.Error(err))
		return distance.Result{}, cerrors.Distance(DistanceUnresolvedMessage, err)
	}
	s.metrics.ObserveDistance(string(res.Source), nil)
	return res, nil
}

// handleBulkValidate handles POST /api/v1/bulk/validate
func (s *Server) handleBulkValidate(c *gin.Context) {
	sheet, err := s.readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Result: bulk.Validate(sheet)})
}

// handleBulkProcess handles POST /api/v1/bulk/process
func (s *Server) handleBulkProcess(c *gin.Context) {
	sheet, err := s.readUpload(c)
	if err != nil {
		if cerrors.IsType(err, cerrors.TypeParsing) {
			c.JSON(http.StatusBadRequest, bulk.FailedReport(err))
			return
		}
		s.fail(c, err)
		return
	}

	var overrides types.Overrides
	if raw := c.PostForm("custom_rates"); raw != "" {
		var rates map[string]float64
		if err := json.Unmarshal([]byte(raw), &rates); err != nil {
			s.fail(c, cerrors.Input("custom_rates must be a JSON object of numbers"))
			return
		}
		overrides = types.ParseOverrides(rates)
	}

	c.JSON(http.StatusOK, s.bulk.Process(c.Request.Context(), sheet, overrides))
}

// handleBulkExport handles POST /api/v1/bulk/export
func (s *Server) handleBulkExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err))
		return
	}
	format, err := exportFormat(req.Format)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(req.Results) == 0 {
		s.fail(c, cerrors.Input("No results to download"))
		return
	}

	var buf bytes.Buffer
	if err := bulk.WriteResults(&buf, format, req.Results); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, "household_goods_calculations", format, buf.Bytes())
}

// handleBulkTemplate handles GET /api/v1/bulk/template
func (s *Server) handleBulkTemplate(c *gin.Context) {
	format, err := exportFormat(c.Query("format"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := bulk.WriteTemplate(&buf, format); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, "household_goods_template", format, buf.Bytes())
}

// handleRateTable handles GET /api/v1/rate-table
func (s *Server) handleRateTable(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Result: rateTableResponse(s.store.Current(), true)})
}

// handleRateTableReload handles POST /api/v1/rate-table/reload
func (s *Server) handleRateTableReload(c *gin.Context) {
	t, err := s.store.Reload()
	s.metrics.ObserveReload(err)
	if err != nil {
		c.JSON(statusFor(err), Response{
			Success: false,
			Error:   cerrors.Message(err),
			Result:  rateTableResponse(t, false),
		})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Result: rateTableResponse(t, false)})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"version":    s.version,
		"rate_table": s.store.Current().Hash().Short(),
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readUpload(c *gin.Context) (*bulk.Sheet, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, cerrors.Input("No file uploaded")
		}
		return nil, bindError(err)
	}
	if fh.Filename == "" {
		return nil, cerrors.Input("No file selected")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, cerrors.Parsing("cannot open upload", err)
	}
	defer f.Close()
	return bulk.ReadSheet(f, fh.Filename)
}

func exportFormat(raw string) (bulk.FileFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "xlsx", "excel":
		return bulk.FormatXLSX, nil
	case "csv":
		return bulk.FormatCSV, nil
	}
	return "", cerrors.Inputf("invalid format %q: use xlsx or csv", raw)
}

func attachment(c *gin.Context, name string, format bulk.FileFormat, data []byte) {
	contentType := contentTypeXLSX
	if format == bulk.FormatCSV {
		contentType = contentTypeCSV
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+"."+string(format)+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// errBodyTooLarge marks a request over the upload cap
var errBodyTooLarge = errors.New("request body too large")

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return cerrors.Input("Invalid input: " + err.Error())
}

// statusFor maps domain error types to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case cerrors.IsType(err, cerrors.TypeInput),
		cerrors.IsType(err, cerrors.TypeDistance),
		cerrors.IsType(err, cerrors.TypeParsing):
		return http.StatusBadRequest
	case cerrors.IsType(err, cerrors.TypeConfig):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := cerrors.Message(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("request_id", requestID(c)), zap.Error(err))
		msg = "internal server error"
	}
	c.JSON(status, Response{Success: false, Error: msg, Metadata: &ResponseMetadata{
		RequestID:     requestID(c),
		EngineVersion: s.version,
	}})
}
