package serve

import (
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>testweave</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 60rem; }
code { background: #f4f4f4; padding: 0 .25rem; }
pre { background: #f4f4f4; padding: 1rem; overflow: auto; max-height: 30rem; }
button { margin-right: .5rem; }
</style>
</head>
<body>
<h1>testweave</h1>
<p>Server root: <code>{{.Root}}</code></p>
<p>Workspace: <code id="workspace">{{.Workspace}}</code></p>
<p>
<input id="path" size="60" placeholder="/path/to/workspace">
<button onclick="setWorkspace()">Set workspace</button>
</p>
<p>
<button onclick="call('POST', '/api/scan', {})">Scan</button>
<button onclick="call('GET', '/api/testcases')">Test cases</button>
<button onclick="call('GET', '/api/health')">Health</button>
</p>
<pre id="out"></pre>
<script>
async function call(method, url, body) {
  const opts = { method, headers: { 'Content-Type': 'application/json' } };
  if (body !== undefined) opts.body = JSON.stringify(body);
  const res = await fetch(url, opts);
  const data = await res.json();
  document.getElementById('out').textContent = JSON.stringify(data, null, 2);
  return data;
}
async function setWorkspace() {
  const data = await call('POST', '/api/workspace', { path: document.getElementById('path').value });
  if (data.workspace) document.getElementById('workspace').textContent = data.workspace;
}
</script>
</body>
</html>
`))

type indexData struct {
	Root      string
	Workspace string
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Root: h.state.Root(), Workspace: h.state.Workspace()}); err != nil {
		h.logger.Error("rendering index", "error", err)
	}
}
