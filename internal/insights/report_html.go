package insights

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/solardome/egra-insight/internal/i18n"
)

func writeReportHTML(path string, report Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return err
	}
	lang := i18n.Parse(report.Language)
	statusClass := statusTone(report.Status)

	skipped := 0
	for _, s := range report.Sections {
		if s.Status == SectionSkipped {
			skipped++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html><html lang=\"%s\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">", esc(string(lang)))
	fmt.Fprintf(&b, "<title>%s</title>", esc(i18n.Text(lang, "report.title", "EGRA/EGMA interpretation report")))
	b.WriteString(`<script>(function(){try{var k='egra_insight_theme';var t=localStorage.getItem(k);if(t!=='light'&&t!=='dark'){t=(window.matchMedia&&window.matchMedia('(prefers-color-scheme: dark)').matches)?'dark':'light'}document.documentElement.setAttribute('data-theme',t);}catch(_){document.documentElement.setAttribute('data-theme','light');}})();</script>`)
	b.WriteString(`<style>
:root {
  --bg: #f6f4ee;
  --panel: #ffffff;
  --panel-2: #faf8f2;
  --ink: #1d2433;
  --muted: #5d6678;
  --line: #e2ddd0;
  --brand: #1f5fa8;
  --ok: #1f8a52;
  --warn: #b7791f;
  --alert: #c0392b;
  --ok-bg: rgba(31, 138, 82, 0.10);
  --warn-bg: rgba(183, 121, 31, 0.12);
  --alert-bg: rgba(192, 57, 43, 0.10);
  --chip: #f0ece2;
  --shadow: 0 12px 24px -20px rgba(20, 24, 40, 0.6);
}
:root[data-theme="dark"] {
  --bg: #0d1320;
  --panel: #141c2c;
  --panel-2: #101827;
  --ink: #e6edf8;
  --muted: #95a3bb;
  --line: #26334a;
  --brand: #7cc4ff;
  --ok: #4fd18b;
  --warn: #f2c14e;
  --alert: #ff7a7a;
  --ok-bg: rgba(79, 209, 139, 0.12);
  --warn-bg: rgba(242, 193, 78, 0.12);
  --alert-bg: rgba(255, 122, 122, 0.12);
  --chip: #1b263a;
  --shadow: 0 16px 28px -22px rgba(0, 0, 0, 0.9);
}
* { box-sizing: border-box; }
body { margin: 0; background: var(--bg); color: var(--ink); font-family: "Source Sans 3", "Segoe UI", system-ui, sans-serif; line-height: 1.5; }
.shell { max-width: 1180px; margin: 0 auto; padding: 22px; }
.card { background: var(--panel); border: 1px solid var(--line); border-radius: 14px; padding: 16px; margin-top: 14px; box-shadow: var(--shadow); }
.hero-top { display: flex; justify-content: space-between; align-items: center; gap: 10px; }
h1 { margin: 0; font-size: 1.5rem; color: var(--brand); }
h2 { margin: 0 0 8px; font-size: 1.15rem; }
h3 { margin: 12px 0 4px; font-size: 1rem; }
h4 { margin: 8px 0 2px; font-size: 0.95rem; color: var(--muted); }
.meta { color: var(--muted); font-size: 0.9rem; margin-top: 4px; }
.mono { font-family: "IBM Plex Mono", ui-monospace, monospace; font-size: 0.88em; }
.pill { display: inline-block; border-radius: 999px; padding: 0.18rem 0.64rem; font-size: 0.8rem; font-weight: 700; border: 1px solid var(--line); background: var(--chip); margin-right: 0.3rem; }
.pill.ok { color: var(--ok); background: var(--ok-bg); }
.pill.attention { color: var(--alert); background: var(--alert-bg); }
.pill.skipped { color: var(--warn); background: var(--warn-bg); }
.kpis { display: grid; grid-template-columns: repeat(4, minmax(0, 1fr)); gap: 8px; margin-top: 12px; }
.kpi { border: 1px solid var(--line); border-radius: 10px; background: var(--panel-2); padding: 8px; }
.kpi .k { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; letter-spacing: 0.04em; }
.kpi .v { font-size: 1.1rem; font-weight: 700; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); font-size: 0.92rem; vertical-align: top; }
th { color: var(--muted); font-weight: 600; }
tr.sev-0 td.label { color: var(--alert); font-weight: 700; }
tr.sev-1 td.label { color: var(--warn); font-weight: 700; }
tr.insufficient td { color: var(--muted); font-style: italic; }
ul.clean { padding-left: 18px; margin: 6px 0; }
.note { color: var(--muted); font-size: 0.9rem; }
.trace-item { border-left: 3px solid var(--line); padding: 4px 10px; margin: 6px 0; }
.trace-item.trace-ok { border-color: var(--ok); }
.trace-item.trace-warn { border-color: var(--warn); }
.trace-item.trace-error { border-color: var(--alert); }
details pre { white-space: pre-wrap; overflow-wrap: anywhere; margin: 4px 0 0; font-size: 0.82rem; }
.theme-toggle { border: 1px solid var(--line); background: var(--chip); color: var(--ink); border-radius: 999px; padding: 0.3rem 0.8rem; font-size: 0.78rem; font-weight: 700; cursor: pointer; }
footer { margin: 14px 0; color: var(--muted); font-size: 0.88rem; text-align: center; }
@media (max-width: 760px) {
  .shell { padding: 12px; }
  .kpis { grid-template-columns: repeat(2, minmax(0, 1fr)); }
  th, td { font-size: 0.84rem; }
}
</style>`)
	b.WriteString("</head><body><main class=\"shell\">")

	fmt.Fprintf(&b, "<section class=\"card\" aria-labelledby=\"report-title\"><div class=\"hero-top\"><h1 id=\"report-title\">%s</h1><button id=\"theme-toggle\" class=\"theme-toggle\" type=\"button\">Theme</button></div>", esc(i18n.Text(lang, "report.title", "EGRA/EGMA interpretation report")))
	fmt.Fprintf(&b, "<div class=\"meta\">Dataset <span class=\"mono\">%s</span> (%s, %d rows)</div><div class=\"meta\">Run ID <span class=\"mono\">%s</span></div>", esc(report.Dataset.Path), esc(report.Dataset.Format), report.Dataset.Rows, esc(report.RunID))
	fmt.Fprintf(&b, "<div class=\"meta\"><span class=\"pill %s\">%s</span></div>", statusClass, esc(report.Status))
	fmt.Fprintf(&b, "<div class=\"kpis\"><div class=\"kpi\"><div class=\"k\">Results</div><div class=\"v\">%d</div></div><div class=\"kpi\"><div class=\"k\">Most severe</div><div class=\"v\">%d</div></div><div class=\"kpi\"><div class=\"k\">Insufficient data</div><div class=\"v\">%d</div></div><div class=\"kpi\"><div class=\"k\">Skipped analyses</div><div class=\"v\">%d</div></div></div></section>", report.Summary.Total, report.Summary.MostSevere, report.Summary.Insufficient, skipped)

	b.WriteString("<section class=\"card\" aria-labelledby=\"narrative-title\"><h2 id=\"narrative-title\">Interpretation</h2>")
	b.WriteString(renderNarrative(report.Narrative))
	b.WriteString("</section>")

	b.WriteString("<section class=\"card\" aria-labelledby=\"steps-title\"><h2 id=\"steps-title\">Recommended next steps</h2>")
	if len(report.RecommendedSteps) == 0 {
		b.WriteString("<p class=\"note\">No follow-up step was selected.</p>")
	} else {
		steps := append([]RecommendedStep(nil), report.RecommendedSteps...)
		sort.Slice(steps, func(i, j int) bool {
			if steps[i].Priority != steps[j].Priority {
				return steps[i].Priority < steps[j].Priority
			}
			return steps[i].ID < steps[j].ID
		})
		b.WriteString("<ol>")
		for _, s := range steps {
			fmt.Fprintf(&b, "<li>%s <span class=\"mono note\">%s</span></li>", esc(s.Text), esc(s.ID))
		}
		b.WriteString("</ol>")
	}
	b.WriteString("</section>")

	if report.NonAuthoritative.LLMEnabled && report.NonAuthoritative.LLMText != "" {
		fmt.Fprintf(&b, "<section class=\"card\" aria-labelledby=\"synthesis-title\"><h2 id=\"synthesis-title\">Synthesis</h2><p class=\"note\">Non-authoritative (%s). Classifications above are not affected.</p>", esc(report.NonAuthoritative.Source))
		for _, p := range strings.Split(report.NonAuthoritative.LLMText, "\n") {
			if strings.TrimSpace(p) != "" {
				fmt.Fprintf(&b, "<p>%s</p>", esc(p))
			}
		}
		b.WriteString("</section>")
	}

	for _, s := range report.Sections {
		b.WriteString(renderSection(s))
	}

	if len(report.Warnings) > 0 {
		b.WriteString("<section class=\"card\" aria-labelledby=\"warnings-title\"><h2 id=\"warnings-title\">Data quality warnings</h2><ul class=\"clean\">")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "<li>%s</li>", esc(w))
		}
		b.WriteString("</ul></section>")
	}

	b.WriteString("<section class=\"card\" aria-labelledby=\"trace-title\"><h2 id=\"trace-title\">Decision trace</h2>")
	if len(report.DecisionTrace) == 0 {
		b.WriteString("<p class=\"note\">No trace entries available.</p>")
	}
	for _, t := range report.DecisionTrace {
		fmt.Fprintf(&b, "<div class=\"trace-item %s\"><span class=\"mono\">%02d</span> <strong>%s</strong> <span class=\"mono\">%s</span>%s</div>", traceTone(t), t.Order, esc(t.Phase), esc(t.Result), renderTraceDetails(t.Details))
	}
	b.WriteString("</section>")

	b.WriteString("<section class=\"card\" aria-labelledby=\"inputs-title\"><h2 id=\"inputs-title\">Inputs</h2><table><thead><tr><th scope=\"col\">kind</th><th scope=\"col\">path</th><th scope=\"col\">sha256</th><th scope=\"col\">read_ok</th></tr></thead><tbody>")
	for _, in := range report.Inputs {
		fmt.Fprintf(&b, "<tr><td>%s</td><td class=\"mono\">%s</td><td class=\"mono\">%s</td><td>%t</td></tr>", esc(in.Kind), esc(in.Path), esc(in.SHA256), in.ReadOK)
	}
	b.WriteString("</tbody></table></section>")

	b.WriteString("<footer>Generated from report.json. Use report.json for any automated processing.</footer>")
	b.WriteString(`<script>(function(){var key='egra_insight_theme';var root=document.documentElement;var btn=document.getElementById('theme-toggle');function theme(){return root.getAttribute('data-theme')==='dark'?'dark':'light'}function sync(){if(btn){btn.textContent=theme()==='dark'?'Light theme':'Dark theme'}}sync();if(btn){btn.addEventListener('click',function(){var next=theme()==='dark'?'light':'dark';root.setAttribute('data-theme',next);try{localStorage.setItem(key,next)}catch(_){}sync()})}})();</script>`)
	b.WriteString("</main></body></html>")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func renderSection(s Section) string {
	var b strings.Builder
	id := "analysis-" + s.Analysis
	fmt.Fprintf(&b, "<section class=\"card\" aria-labelledby=\"%s\"><h2 id=\"%s\">%s", esc(id), esc(id), esc(strings.ReplaceAll(s.Analysis, "_", " ")))
	if s.Status == SectionSkipped {
		b.WriteString(" <span class=\"pill skipped\">skipped</span></h2><ul class=\"clean\">")
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "<li>%s</li>", esc(e))
		}
		b.WriteString("</ul></section>")
		return b.String()
	}
	b.WriteString("</h2>")
	if len(s.Classifications) > 0 {
		b.WriteString("<table><thead><tr><th scope=\"col\">kind</th><th scope=\"col\">subject</th><th scope=\"col\">value</th><th scope=\"col\">band</th><th scope=\"col\">recommendation</th></tr></thead><tbody>")
		for _, c := range s.Classifications {
			fmt.Fprintf(&b, "<tr class=\"%s\"><td class=\"mono\">%s</td><td class=\"mono\">%s</td><td>%s</td><td class=\"label\">%s</td><td>%s</td></tr>", rowTone(c), esc(c.Kind), esc(c.Subject), formatCell(c.Value), esc(c.Label), esc(c.Recommendation))
		}
		b.WriteString("</tbody></table>")
	}
	if len(s.Notes) > 0 {
		b.WriteString("<ul class=\"clean note\">")
		for _, n := range s.Notes {
			fmt.Fprintf(&b, "<li>%s</li>", esc(n))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</section>")
	return b.String()
}

// renderNarrative maps the narrative markers to headings and list items.
func renderNarrative(lines []string) string {
	var b strings.Builder
	inList := false
	closeList := func() {
		if inList {
			b.WriteString("</ul>")
			inList = false
		}
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "### "):
			closeList()
			fmt.Fprintf(&b, "<h4>%s</h4>", esc(strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "## "):
			closeList()
			fmt.Fprintf(&b, "<h3>%s</h3>", esc(strings.TrimPrefix(line, "## ")))
		case strings.HasPrefix(line, "- "):
			if !inList {
				b.WriteString("<ul class=\"clean\">")
				inList = true
			}
			fmt.Fprintf(&b, "<li>%s</li>", esc(strings.TrimPrefix(line, "- ")))
		default:
			closeList()
			fmt.Fprintf(&b, "<p>%s</p>", esc(line))
		}
	}
	closeList()
	return b.String()
}

func statusTone(status string) string {
	if status == StatusAttentionRequired {
		return "attention"
	}
	return "ok"
}

func rowTone(c Classification) string {
	switch {
	case c.Insufficient:
		return "insufficient"
	case c.Severity == 0:
		return "sev-0"
	case c.Severity == 1:
		return "sev-1"
	default:
		return "sev-n"
	}
}

func formatCell(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func traceTone(t TraceEntry) string {
	res := strings.ToLower(t.Result)
	switch {
	case strings.Contains(res, "error"):
		return "trace-error"
	case strings.Contains(res, "skipped"), strings.Contains(res, "fallback"):
		return "trace-warn"
	default:
		return "trace-ok"
	}
}

func renderTraceDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("<details><summary class=\"note\">details</summary><pre class=\"mono\">")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", esc(k), esc(fmt.Sprintf("%v", details[k])))
	}
	b.WriteString("</pre></details>")
	return b.String()
}
