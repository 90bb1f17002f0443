package debug

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 曲线绘制
type Charts struct {
	Record
	Title string // 页面标题
}

// legend 纵向滚动图例
var legend = opts.Legend{
	Type:   "scroll",
	Orient: "vertical",
	Right:  "10",
	Top:    "20",
	Bottom: "20",
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	if c.Len() == 0 {
		return fmt.Errorf("no frames recorded")
	}
	page := components.NewPage()
	if c.Title != "" {
		page.SetPageTitle(c.Title)
	}
	page.AddCharts(
		c.topology(),
		c.curve("x 坐标", "关节 x 坐标随驱动角变化曲线", c.X),
		c.curve("y 坐标", "关节 y 坐标随驱动角变化曲线", c.Y),
	)
	return page.Render(w)
}

// topology 首帧机构拓扑图，节点固定在关节坐标上
func (c *Charts) topology() *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "机构拓扑",
			Subtitle: fmt.Sprintf("驱动角 %.2f°", c.Angle[0]),
		}),
		charts.WithLegendOpts(legend),
	)
	category := map[string]int{"free": 0, "pinned": 1, "driven": 2}
	nodes := make([]opts.GraphNode, len(c.Joints))
	for i, name := range c.Joints {
		nodes[i] = opts.GraphNode{
			Name:     name,
			X:        float32(c.X[0][i]),
			Y:        float32(-c.Y[0][i]), // 画布 y 轴向下
			Fixed:    opts.Bool(true),
			Category: category[c.Kinds[i]],
			Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
		}
	}
	links := make([]opts.GraphLink, len(c.Rods))
	for i, r := range c.Rods {
		links[i] = opts.GraphLink{
			Source: c.Joints[r[0]],
			Target: c.Joints[r[1]],
			Value:  float32(i),
		}
	}
	graph.AddSeries("连杆", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout: "none",
			Categories: []*opts.GraphCategory{
				{Name: "自由", ItemStyle: &opts.ItemStyle{Color: "#1987c7b7"}},
				{Name: "固定", ItemStyle: &opts.ItemStyle{Color: "#000000de"}},
				{Name: "驱动", ItemStyle: &opts.ItemStyle{Color: "#c71979b7"}},
			},
			Roam:               opts.Bool(true),
			FocusNodeAdjacency: opts.Bool(true),
		}),
		charts.WithEmphasisOpts(opts.Emphasis{
			Label: &opts.Label{
				Show:     opts.Bool(true),
				Color:    "black",
				Position: "left",
			},
		}),
	)
	return graph
}

// curve 每个关节一条随驱动角变化的曲线
func (c *Charts) curve(title, subtitle string, values [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(legend),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "deg",
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	axis := make([]string, len(c.Angle))
	for i, a := range c.Angle {
		axis[i] = fmt.Sprintf("%.2f", a)
	}
	line.SetXAxis(axis)
	for j, name := range c.Joints {
		items := make([]opts.LineData, len(values))
		for i, v := range values {
			items[i] = opts.LineData{Value: v[j]}
		}
		line.AddSeries(name, items)
	}
	return line
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		c.Error(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
