package report

// PageTemplate is the HTML template for the news analysis page.
// It is embedded as a Go constant; the page has no external assets.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.15rem; margin: 4px 0; }
  h3 { font-size: 0.95rem; margin: 14px 0 6px; padding-bottom: 4px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .article { border: 1px solid var(--border); border-radius: 8px; padding: 16px; margin-bottom: 20px; }
  .article.failed { border-left: 5px solid var(--red); }
  .stats {
    display: grid;
    grid-template-columns: repeat(4, 1fr);
    gap: 8px;
    background: var(--section-bg);
    padding: 10px;
    border-radius: 6px;
    margin-top: 10px;
  }
  .stat { text-align: center; }
  .stat .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 6px; font-weight: 600; }
  td { padding: 6px; border-bottom: 1px solid var(--border); vertical-align: top; }
  ul { margin-left: 20px; }
  .footer { margin-top: 24px; font-size: 0.8rem; color: var(--muted); text-align: center; }
</style>
</head>
<body>
<div class="header">
  <h1>{{.Title}}</h1>
  <div class="muted">Generated {{.GeneratedAt}} &middot; {{.Total}} article(s){{if .Failed}}, {{.Failed}} failed{{end}}</div>
</div>
{{range .Articles}}
<div class="article{{if .Failed}} failed{{end}}">
  <h2>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h2>
  <div class="muted">{{.Source}}{{if .Published}} &middot; {{.Published}}{{end}}</div>
  {{if .Failed}}
  <p class="negative">Error analyzing article: {{.Error}}</p>
  {{else}}
  <div class="stats">
    <div class="stat"><div class="label">Sentiment</div><div class="value {{.ScoreClass}}">{{.Score}}</div></div>
    <div class="stat"><div class="label">Confidence</div><div class="value">{{.Confidence}}</div></div>
    <div class="stat"><div class="label">Impact</div><div class="value {{.ScoreClass}}">{{.Impact}}</div></div>
    <div class="stat"><div class="label">Label</div><div class="value">{{.Label}}</div></div>
  </div>

  <h3>Key Entities</h3>
  <p><strong>Companies:</strong> {{.Companies}}</p>
  <p><strong>Sectors:</strong> {{.Sectors}}</p>
  <p><strong>Financial Instruments:</strong> {{.Instruments}}</p>

  <h3>Financial Metrics</h3>
  {{if .Metrics}}
  <table>
    <tr><th>Kind</th><th>Value</th><th>Normalized</th><th>Context</th></tr>
    {{range .Metrics}}<tr><td>{{.Kind}}</td><td>{{.Value}}</td><td>{{.Normalized}}</td><td>{{.Context}}</td></tr>
    {{end}}
  </table>
  {{else}}<p class="muted">None detected</p>{{end}}

  {{if .Quotes}}
  <h3>Critical Quotes</h3>
  <ul>{{range .Quotes}}<li>&ldquo;{{.}}&rdquo;</li>{{end}}</ul>
  {{end}}

  <h3>Market Implications</h3>
  <ul>{{range .Implications}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
</div>
{{end}}
<div class="footer">Automated analysis for informational purposes only. Not financial advice.</div>
</body>
</html>
`
