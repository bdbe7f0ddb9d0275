package grid

import (
	"fmt"

	"github.com/recera/solarview/pkg/viewport"
)

// Kind tags a laid-out box
type Kind uint8

const (
	KindSMB Kind = iota
	KindString
	KindPanel
)

func (k Kind) String() string {
	switch k {
	case KindSMB:
		return "smb"
	case KindString:
		return "string"
	default:
		return "panel"
	}
}

// Box is a positioned schematic element in untransformed surface pixels
type Box struct {
	Kind  Kind
	Label string
	viewport.Rect
}

// Metrics controls element sizes for Layout
type Metrics struct {
	PanelW  float64
	PanelH  float64
	Gap     float64
	Padding float64
	Header  float64
}

// DefaultMetrics matches the stylesheet served with the workspace page
func DefaultMetrics() Metrics {
	return Metrics{
		PanelW:  36,
		PanelH:  20,
		Gap:     6,
		Padding: 12,
		Header:  22,
	}
}

// Layout positions every SMB, string and panel. SMBs are columns left to right, strings are
// rows inside an SMB, panels run left to right along their string. Boxes are returned
// parents first, so painting in order draws children on top.
func (g Grid) Layout(m Metrics) ([]Box, viewport.Size) {
	n := len(g.SMBs)
	if n == 0 {
		return nil, viewport.Size{}
	}

	strings := max(g.Spec.StringCount, 0)
	panels := max(g.Spec.PanelCount, 0)

	smbW := 2*m.Padding + float64(max(panels, 1))*m.PanelW + float64(max(panels-1, 0))*m.Gap
	smbH := m.Header + 2*m.Padding + float64(strings)*(m.PanelH+m.Gap)
	if strings > 0 {
		smbH -= m.Gap
	}

	boxes := make([]Box, 0, n*(1+strings*(1+panels)))
	for i, smb := range g.SMBs {
		x := m.Padding + float64(i)*(smbW+2*m.Gap)
		y := m.Padding
		boxes = append(boxes, Box{
			Kind:  KindSMB,
			Label: fmt.Sprintf("SMB %d", i+1),
			Rect:  viewport.Rect{X: x, Y: y, W: smbW, H: smbH},
		})

		for j, str := range smb.Strings {
			rowY := y + m.Header + m.Padding + float64(j)*(m.PanelH+m.Gap)
			boxes = append(boxes, Box{
				Kind:  KindString,
				Label: fmt.Sprintf("%d.%d", i+1, j+1),
				Rect: viewport.Rect{
					X: x + m.Padding/2,
					Y: rowY - m.Gap/2,
					W: smbW - m.Padding,
					H: m.PanelH + m.Gap,
				},
			})

			for k, p := range str.Panels {
				boxes = append(boxes, Box{
					Kind:  KindPanel,
					Label: p.Label,
					Rect: viewport.Rect{
						X: x + m.Padding + float64(k)*(m.PanelW+m.Gap),
						Y: rowY,
						W: m.PanelW,
						H: m.PanelH,
					},
				})
			}
		}
	}

	width := 2*m.Padding + float64(n)*smbW + float64(n-1)*2*m.Gap
	height := 2*m.Padding + smbH
	return boxes, viewport.Size{W: width, H: height}
}
