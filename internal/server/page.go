package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/recera/solarview/pkg/live"
	"github.com/recera/solarview/pkg/renderer/html"
	"github.com/recera/solarview/pkg/vdom"
	"github.com/recera/solarview/pkg/workspace"
)

// handlePage server-renders a workspace for the current layout. The client script then
// opens /live/{session}, whose first frame replaces the rendered tree.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := live.SessionID(r.URL.Query().Get("session"))

	opts := s.cfg.Workspace
	opts.Layout = s.feed.Get()
	ws := workspace.New(&opts)
	ws.Mount(s.cfg.MiniMapBounds)
	defer ws.Close()

	markup, err := html.RenderToString(s.page(id, ws.Render()))
	if err != nil {
		log.Printf("[Server] Page render failed: %v", err)
		writeError(w, http.StatusInternalServerError, "rendering page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<!DOCTYPE html>", markup)
}

func (s *Server) page(session string, body *vdom.VNode) *vdom.VNode {
	return vdom.NewElement("html", vdom.Props{"lang": "en"},
		vdom.NewElement("head", nil,
			vdom.NewElement("meta", vdom.Props{"charset": "utf-8"}),
			vdom.NewElement("title", nil, vdom.NewText("Plant schematic")),
			vdom.NewElement("style", nil, vdom.NewText(s.stylesheet())),
		),
		vdom.NewElement("body", nil,
			vdom.NewElement("div", vdom.Props{"id": "app", "data-session": session}, body),
			vdom.NewElement("script", nil, vdom.NewText(clientScript)),
		),
	)
}

func (s *Server) stylesheet() string {
	surface, mini := s.cfg.Surface, s.cfg.MiniMapBounds
	return fmt.Sprintf(`body{margin:0;font-family:system-ui,sans-serif;background:#eef1f5}
.workspace{position:relative;width:%gpx;height:%gpx;overflow:hidden;background:#f5f7fa;touch-action:none;user-select:none}
.viewport{position:absolute;inset:0;overflow:hidden}
.schematic{position:absolute;inset:0;display:flex;align-items:center;justify-content:center}
.grid{display:flex;gap:16px}
.smb{border:1px solid #8b949e;border-radius:6px;padding:8px;background:#fff}
.smb-title{font-weight:600;margin-bottom:6px}
.string{display:flex;gap:4px;margin-bottom:4px}
.panel{width:36px;height:22px;background:#1f6feb;color:#fff;font-size:9px;display:flex;align-items:center;justify-content:center;border-radius:2px}
.controls{position:absolute;top:16px;right:16px;display:flex;gap:4px;align-items:center;background:#fff;padding:4px;border-radius:6px;box-shadow:0 1px 4px #0003}
.controls button{min-width:32px;height:28px;cursor:pointer}
.zoom-level{min-width:48px;text-align:center;font-variant-numeric:tabular-nums}
.minimap{position:absolute;left:%gpx;top:%gpx;width:%gpx;height:%gpx;overflow:hidden;background:#fff;border:1px solid #8b949e;cursor:pointer;display:%s}
.minimap-content{position:absolute;inset:0;transform-origin:0 0}
.minimap-content iframe{border:0;width:100%%;height:100%%;pointer-events:none}
.minimap-frame{position:absolute;inset:0;pointer-events:none;box-shadow:inset 0 0 0 2px #1f6feb55}
.minimap-reset{position:absolute;right:4px;top:4px;padding:0 4px}`,
		surface.W, surface.H, mini.X, mini.Y, mini.W, mini.H, miniDisplay(mini.W, mini.H))
}

func miniDisplay(w, h float64) string {
	if w <= 0 || h <= 0 {
		return "none"
	}
	return "block"
}

// clientScript applies binary patch frames and forwards pointer, wheel, click and command
// input as JSON. Coordinates are relative to the workspace element.
const clientScript = `(function () {
  var app = document.getElementById("app");
  var text = new TextDecoder();
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/live/" + app.dataset.session);
  ws.binaryType = "arraybuffer";

  function reader(buf) {
    var b = new Uint8Array(buf), i = 0;
    return {
      byte: function () { return b[i++]; },
      uvarint: function () {
        var x = 0, s = 1, c;
        do { c = b[i++]; x += (c & 0x7f) * s; s *= 128; } while (c & 0x80);
        return x;
      },
      string: function () {
        var n = this.uvarint(), v = text.decode(b.subarray(i, i + n));
        i += n;
        return v;
      }
    };
  }

  function nodeAt(path) {
    var n = app.firstChild;
    if (path === "") return n;
    path.split("/").forEach(function (i) { n = n.childNodes[+i]; });
    return n;
  }

  function fragment(markup) {
    var t = document.createElement("template");
    t.innerHTML = markup;
    return t.content;
  }

  function applyPatches(r) {
    var count = r.uvarint();
    for (var k = 0; k < count; k++) {
      var op = r.byte(), path = r.string(), n;
      switch (op) {
      case 1: nodeAt(path).nodeValue = r.string(); break;
      case 2: n = nodeAt(path); n.setAttribute(r.string(), r.string()); break;
      case 3: nodeAt(path).remove(); break;
      case 4: nodeAt(path).appendChild(fragment(r.string())); break;
      case 6: nodeAt(path).removeAttribute(r.string()); break;
      case 8:
        n = fragment(r.string());
        if (path === "") { app.replaceChildren(n); } else { nodeAt(path).replaceWith(n); }
        break;
      }
    }
  }

  ws.onmessage = function (msg) {
    var r = reader(msg.data), frame = r.byte();
    if (frame === 0) applyPatches(r);
  };

  function send(ev) {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(ev));
  }

  function at(e) {
    var box = app.firstChild.getBoundingClientRect();
    return { x: e.clientX - box.left, y: e.clientY - box.top };
  }

  function target(e) {
    var el = e.target.closest && e.target.closest("#schematic,#minimap,#controls");
    return el ? el.id : "";
  }

  function pointer(type, e, tgt) {
    var p = at(e);
    send({ type: type, target: tgt, x: p.x, y: p.y, pointerId: e.pointerId,
      pointerType: e.pointerType, isPrimary: e.isPrimary });
  }

  app.addEventListener("pointerdown", function (e) { pointer("pointerdown", e, target(e)); });
  window.addEventListener("pointermove", function (e) { pointer("pointermove", e, ""); });
  window.addEventListener("pointerup", function (e) { pointer("pointerup", e, ""); });
  window.addEventListener("pointercancel", function (e) { pointer("pointerup", e, ""); });

  app.addEventListener("wheel", function (e) {
    var tgt = target(e);
    if (tgt !== "schematic" && tgt !== "minimap") return;
    e.preventDefault();
    send({ type: "wheel", target: tgt, deltaY: e.deltaY });
  }, { passive: false });

  app.addEventListener("click", function (e) {
    var button = e.target.closest && e.target.closest("[data-command]");
    if (button) {
      send({ type: "command", command: button.dataset.command });
      return;
    }
    if (target(e) === "minimap") {
      var p = at(e);
      send({ type: "click", target: "minimap", x: p.x, y: p.y });
    }
  });
})();`
