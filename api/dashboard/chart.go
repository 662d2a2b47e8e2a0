package dashboard

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	coredash "github.com/kilianp07/feederwatch/core/dashboard"
)

// FeederChartHTML renders a bar chart of fault counts per feeder for cycle.
func FeederChartHTML(counts []coredash.FeederCount, cycle int) ([]byte, error) {
	bar := charts.NewBar()
	subtitle := "no cycles recorded"
	if cycle > 0 {
		subtitle = fmt.Sprintf("cycle %d", cycle)
	}
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Faults per feeder", Subtitle: subtitle}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Feeder"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Faults"}),
	)

	names := make([]string, 0, len(counts))
	data := make([]opts.BarData, 0, len(counts))
	for _, fc := range counts {
		names = append(names, fc.Feeder)
		data = append(data, opts.BarData{Value: fc.Faults})
	}
	bar.SetXAxis(names).AddSeries("Faults", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render feeder chart: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *Handler) feederChart(c *gin.Context) {
	counts, cycle, err := h.svc.FeederCounts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := FeederChartHTML(counts, cycle)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
