package reconcile

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/hosteddb"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type targetProgress struct {
	TargetYear   int             `json:"targetYear"`
	TargetMonths string          `json:"targetMonths"`
	TargetValue  decimal.Decimal `json:"targetValue"`
	Achieved     decimal.Decimal `json:"achieved"`
	Percent      decimal.Decimal `json:"percent"`
}

type achievementResponse struct {
	LocalName    string           `json:"localName"`
	ExternalName string           `json:"externalName"`
	MatchKind    MatchKind        `json:"matchKind"`
	Targets      []targetProgress `json:"targets"`
}

// ExternalDataHandler serves the matched targets and invoices for a local
// agency name. An unmatched name answers 200 with empty collections.
func ExternalDataHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agency name is required"})
			return
		}

		data, err := svc.FetchTargetsAndInvoices(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

// AchievementHandler computes achievement per target for an agency. With
// explicit months/year query params it computes a single ad-hoc figure
// instead.
func AchievementHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agency name is required"})
			return
		}
		ctx := c.Request.Context()

		match, err := svc.ResolveMatch(ctx, name)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		resp := achievementResponse{
			LocalName:    name,
			ExternalName: match.ExternalName,
			MatchKind:    match.Kind,
			Targets:      []targetProgress{},
		}
		if match.Kind == MatchNone {
			c.JSON(http.StatusOK, resp)
			return
		}

		if months := strings.TrimSpace(c.Query("months")); months != "" {
			year, _ := strconv.Atoi(c.Query("year"))
			if year == 0 {
				year = time.Now().Year()
			}
			achieved := svc.CalculateAchievement(ctx, match.ExternalName, months, year)
			resp.Targets = append(resp.Targets, targetProgress{
				TargetYear:   year,
				TargetMonths: months,
				Achieved:     achieved,
				Percent:      decimal.Zero,
			})
			c.JSON(http.StatusOK, resp)
			return
		}

		progress, err := svc.targetProgress(ctx, match.ExternalName)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		resp.Targets = progress
		c.JSON(http.StatusOK, resp)
	}
}

// InvalidateMatchHandler drops the cached match for an agency name so the
// next lookup re-matches against fresh external names.
func InvalidateMatchHandler(cache *MatchCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agency name is required"})
			return
		}
		if err := cache.Invalidate(name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AchievementReportHandler exports the per-target progress sheet the sales
// team passes around, as an xlsx download.
func AchievementReportHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agency name is required"})
			return
		}
		ctx := c.Request.Context()

		match, err := svc.ResolveMatch(ctx, name)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		var progress []targetProgress
		if match.Kind != MatchNone {
			progress, err = svc.targetProgress(ctx, match.ExternalName)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := []string{"Agency", "External Customer", "Match", "Year", "Months", "Target", "Achieved", "Percent"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for row, p := range progress {
			values := []any{
				name, match.ExternalName, string(match.Kind),
				p.TargetYear, p.TargetMonths,
				p.TargetValue.InexactFloat64(),
				p.Achieved.InexactFloat64(),
				p.Percent.InexactFloat64(),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filename := fmt.Sprintf("achievement-%s.xlsx", strings.ReplaceAll(Normalize(name), " ", "-"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}

// targetProgress computes achieved and percent for every target of an
// external customer. The target's adjusted value wins over the initial one
// when both are present.
func (s *Service) targetProgress(ctx context.Context, externalName string) ([]targetProgress, error) {
	var targets []ExternalCustomer
	query := hosteddb.NewQuery().
		Eq("customer_name", externalName).
		OrderAsc("target_year")
	if err := s.external.Get(ctx, targetsTable, query, &targets); err != nil {
		return nil, err
	}

	progress := make([]targetProgress, 0, len(targets))
	for _, target := range targets {
		achieved := s.CalculateAchievement(ctx, externalName, target.TargetMonths, target.TargetYear)
		targetValue := target.AdjustedTotalValue
		if targetValue.IsZero() {
			targetValue = target.InitialTotalValue
		}
		progress = append(progress, targetProgress{
			TargetYear:   target.TargetYear,
			TargetMonths: target.TargetMonths,
			TargetValue:  targetValue,
			Achieved:     achieved,
			Percent:      AchievementPercent(achieved, targetValue),
		})
	}
	return progress, nil
}
