package workspace

import (
	"fmt"
	"math"

	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/minimap"
	"github.com/recera/solarview/pkg/vdom"
	"github.com/recera/solarview/pkg/viewport"
)

// Render builds the workspace tree. The grid subtree comes from a memo keyed by the layout,
// so a transform change only touches attributes on the surface and the zoom readout.
func (w *Workspace) Render() *vdom.VNode {
	st := w.State()

	surface := vdom.NewElement("div", vdom.Props{
		"id":    ElementSchematic,
		"class": "schematic",
		"style": st.Transform.Style(st.Cursor),
	}, w.content.Get(st.Layout))

	return vdom.NewElement("div", vdom.Props{"id": ElementRoot, "class": "workspace"},
		vdom.NewElement("div", vdom.Props{"class": "viewport"}, surface),
		renderControls(st.Transform),
		w.renderMiniMap(st),
	)
}

func renderControls(t viewport.Transform) *vdom.VNode {
	kids := make([]*vdom.VNode, 0, len(viewport.Commands)+1)
	for _, cmd := range viewport.Commands {
		kids = append(kids, vdom.NewElement("button", vdom.Props{
			"type":         "button",
			"data-command": cmd,
			"title":        cmd,
		}, vdom.NewText(viewport.Label(cmd))))
	}
	kids = append(kids, vdom.NewElement("span", vdom.Props{"class": "zoom-level"},
		vdom.NewText(fmt.Sprintf("%d%%", int(math.Round(t.Scale*100))))))

	return vdom.NewElement("div", vdom.Props{"id": ElementControls, "class": "controls"}, kids...)
}

func (w *Workspace) renderMiniMap(st State) *vdom.VNode {
	var preview *vdom.VNode
	if src := w.mini.Source(); src != "" {
		preview = vdom.NewElement("iframe", vdom.Props{
			"src":     src,
			"title":   "Plant preview",
			"loading": "lazy",
		})
	}

	return vdom.NewElement("div", vdom.Props{"id": ElementMiniMap, "class": "minimap"},
		vdom.NewElement("div", vdom.Props{"class": "minimap-content", "style": st.MiniMap.Style()}, preview),
		vdom.NewElement("div", vdom.Props{"class": "minimap-frame"}),
		vdom.NewElement("button", vdom.Props{
			"type":         "button",
			"class":        "minimap-reset",
			"data-command": minimap.CommandReset,
			"title":        "Reset mini-map",
		}, vdom.NewText("⟲")),
	)
}

// renderGrid turns the grid into nested SMB/string/panel elements
func renderGrid(g grid.Grid) *vdom.VNode {
	smbs := make([]*vdom.VNode, 0, len(g.SMBs))
	for i, smb := range g.SMBs {
		strs := make([]*vdom.VNode, 0, len(smb.Strings)+1)
		strs = append(strs, vdom.NewElement("div", vdom.Props{"class": "smb-title"},
			vdom.NewText(fmt.Sprintf("SMB %d", i+1))))

		for j, str := range smb.Strings {
			panels := make([]*vdom.VNode, 0, len(str.Panels))
			for _, p := range str.Panels {
				panels = append(panels, vdom.NewElement("div", vdom.Props{
					"class":      "panel",
					"data-label": p.Label,
				}, vdom.NewText(p.Label)))
			}
			strs = append(strs, vdom.NewElement("div", vdom.Props{
				"key":   fmt.Sprintf("string-%d-%d", i+1, j+1),
				"class": "string",
			}, panels...))
		}

		smbs = append(smbs, vdom.NewElement("div", vdom.Props{
			"key":   fmt.Sprintf("smb-%d", i+1),
			"class": "smb",
		}, strs...))
	}

	return vdom.NewElement("div", vdom.Props{
		"class":       "grid",
		"data-layout": g.Spec.String(),
	}, smbs...)
}
