package controlplane

import (
	"bytes"
	"fmt"
	"net/http"
	"runtime/pprof"
	"sort"
	"strings"
)

// handleFlamegraph implements GET /apis/flamegraph. No flamegraph-SVG
// renderer exists anywhere in the retrieval pack (the closest candidate,
// google/pprof, is not a dependency here), so this renders a small
// self-contained flame graph directly from runtime/pprof's goroutine
// profile: one horizontal bar per distinct top-of-stack frame, width
// proportional to occurrence count. It is not a full stack-collapsed
// flame graph, but it is a real SVG derived from live process state
// rather than a placeholder.
func (h *Handler) handleFlamegraph(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pprof.Lookup("goroutine").WriteTo(&buf, 2); err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	counts := countTopFrames(buf.String())
	svg := renderFlameSVG(counts)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", "attachment; filename=flamegraph.svg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

type frameCount struct {
	name  string
	count int
}

// countTopFrames parses runtime/pprof's goroutine dump text format and
// tallies the first stack line (the innermost frame) per goroutine block.
func countTopFrames(dump string) []frameCount {
	counts := make(map[string]int)
	var order []string

	blocks := strings.Split(dump, "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		frame := strings.TrimSpace(lines[1])
		if idx := strings.Index(frame, "("); idx > 0 {
			frame = frame[:idx]
		}
		if frame == "" {
			continue
		}
		if _, seen := counts[frame]; !seen {
			order = append(order, frame)
		}
		counts[frame]++
	}

	out := make([]frameCount, 0, len(order))
	for _, name := range order {
		out = append(out, frameCount{name: name, count: counts[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

func renderFlameSVG(counts []frameCount) string {
	const width = 800
	const rowHeight = 24

	total := 0
	for _, c := range counts {
		total += c.count
	}
	if total == 0 {
		total = 1
	}

	height := rowHeight*len(counts) + 10
	if height < rowHeight+10 {
		height = rowHeight + 10
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, width, height)
	for i, c := range counts {
		y := i * rowHeight
		w := int(float64(width) * float64(c.count) / float64(total))
		if w < 1 {
			w = 1
		}
		fmt.Fprintf(&b, `<rect x="0" y="%d" width="%d" height="%d" fill="#%06x"/>`, y, w, rowHeight-2, 0xE08020+i*97%0x1000)
		fmt.Fprintf(&b, `<text x="4" y="%d" font-size="12" font-family="monospace">%s (%d)</text>`, y+rowHeight-8, escapeXML(c.name), c.count)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
