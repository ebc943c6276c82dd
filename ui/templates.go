package ui

// pageTemplates holds the catalog UI templates. The UI is deliberately
// small: a filterable list and a per-entry report page.
const pageTemplates = `
{{define "catalog"}}
<!DOCTYPE html>
<html>
<head>
<title>Evidence Catalog</title>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 70em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
.tier-Gold { background: #ffd700; }
.tier-Silver { background: #d9d9d9; }
.tier-Bronze { background: #e8b57a; }
.tier-Red { background: #f08080; }
.tier-Black { background: #444; color: #fff; }
</style>
</head>
<body>
<h1>Evidence Catalog</h1>
<p>{{.Stats.TotalEntries}} classified entries.
Mean tail probability {{printf "%.2f" .Distribution.Mean}},
median {{printf "%.2f" .Distribution.Median}}.</p>
<table>
<tr><th>Entry</th><th>Category</th><th>Claim</th><th>Tier</th><th>Label</th><th>P(effect &gt; threshold)</th><th>Built</th></tr>
{{range .Rows}}
<tr>
<td><a href="/entries/{{.EntryID}}">{{.Slug}}</a></td>
<td>{{.Category}}</td>
<td>{{.Outcome}}</td>
<td class="tier-{{.Tier}}">{{.Tier}}</td>
<td>{{.Label}}</td>
<td>{{printf "%.1f%%" (mul .TailProb 100.0)}}</td>
<td>{{.BuiltAt}}</td>
</tr>
{{end}}
</table>
</body>
</html>
{{end}}

{{define "entry"}}
<!DOCTYPE html>
<html>
<head>
<title>{{.Detail.Entry.Slug}}</title>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 50em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
blockquote { border-left: 3px solid #888; padding-left: 1em; color: #555; }
</style>
</head>
<body>
<p><a href="/">&larr; catalog</a> &middot; <a href="/entries/{{.Detail.Entry.ID}}/report">markdown</a></p>
{{.Report}}
</body>
</html>
{{end}}
`
