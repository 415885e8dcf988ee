package api

import (
	"html/template"
	"log"
	"net/http"

	"dispatch-gateway/internal/model"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Dispatch Gateway</title></head>
<body>
<h1>Dispatch Gateway</h1>
<p><a href="/upload">Upload a script</a> | <a href="/init">Reset to seed data</a></p>
{{range .Errors}}<p><em>degraded: {{.}}</em></p>{{end}}
<h2>Customers</h2>
<table border="1">
<tr><th>ID</th><th>Plan</th><th>Created</th></tr>
{{range .Customers}}<tr><td>{{.ID}}</td><td>{{.PlanType}}</td><td>{{.CreatedAt}}</td></tr>{{end}}
</table>
<h2>Dispatch limits</h2>
<table border="1">
<tr><th>Script</th><th>CPU ms</th><th>Memory</th></tr>
{{range .Limits}}<tr><td>{{.ScriptID}}</td><td>{{if .CPUMs}}{{.CPUMs}}{{end}}</td><td>{{if .Memory}}{{.Memory}}{{end}}</td></tr>{{end}}
</table>
<h2>Outbound workers</h2>
<table border="1">
<tr><th>Script</th><th>Outbound script</th></tr>
{{range .Workers}}<tr><td>{{.ScriptID}}</td><td>{{.OutboundScriptID}}</td></tr>{{end}}
</table>
<h2>Namespace scripts</h2>
<ul>
{{range .Scripts}}<li>{{.}} — <a href="/dispatch/{{.}}">dispatch</a></li>{{end}}
</ul>
</body>
</html>`))

var uploadTmpl = template.Must(template.New("upload").Parse(`<!DOCTYPE html>
<html>
<head><title>Upload script</title></head>
<body>
<h1>Upload a script</h1>
<form id="upload">
<p><label>API token <input name="token" size="80"></label></p>
<p><label>Script name <input name="name"></label></p>
<p><label>Script body<br><textarea name="script" rows="10" cols="80"></textarea></label></p>
<p><label>CPU limit (ms) <input name="cpuMs"></label>
<label>Memory limit <input name="memory"></label></p>
<p><button type="submit">Upload</button></p>
</form>
<pre id="result"></pre>
<script>
document.getElementById("upload").addEventListener("submit", async (e) => {
	e.preventDefault();
	const f = new FormData(e.target);
	const limits = {};
	if (f.get("cpuMs")) limits.cpuMs = Number(f.get("cpuMs"));
	if (f.get("memory")) limits.memory = Number(f.get("memory"));
	const body = { script: f.get("script"), dispatch_config: {} };
	if (Object.keys(limits).length) body.dispatch_config.limits = limits;
	const resp = await fetch("/script/" + f.get("name"), {
		method: "PUT",
		headers: { "Authorization": "Bearer " + f.get("token") },
		body: JSON.stringify(body),
	});
	document.getElementById("result").textContent = resp.status + " " + await resp.text();
});
</script>
</body>
</html>`))

type indexData struct {
	Customers []model.Customer
	Limits    []model.DispatchLimits
	Workers   []model.OutboundWorker
	Scripts   []string
	Errors    []string
}

// @Summary Debug dump of store tables and namespace scripts
// @Tags Admin
// @Produce html
// @Success 200 {string} string "HTML"
// @Router / [get]
func (a *API) Index(w http.ResponseWriter, r *http.Request) {
	// The debug page degrades instead of failing: each adapter error becomes
	// a note on the page and the rest still renders.
	var data indexData
	var err error

	if data.Customers, err = a.Storage.ListCustomers(r.Context()); err != nil {
		data.Errors = append(data.Errors, "customers unavailable")
		log.Printf("API: Index customer dump failed: %v", err)
	}
	if data.Limits, err = a.Storage.ListDispatchLimits(r.Context()); err != nil {
		data.Errors = append(data.Errors, "dispatch limits unavailable")
		log.Printf("API: Index limits dump failed: %v", err)
	}
	if data.Workers, err = a.Storage.ListOutboundWorkers(r.Context()); err != nil {
		data.Errors = append(data.Errors, "outbound workers unavailable")
		log.Printf("API: Index outbound worker dump failed: %v", err)
	}
	if data.Scripts, err = a.Namespace.ListScripts(); err != nil {
		data.Errors = append(data.Errors, "namespace unavailable")
		log.Printf("API: Index script list failed: %v", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("API: Index render failed: %v", err)
	}
}

// @Summary Manual upload form
// @Tags Admin
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /upload [get]
func (a *API) UploadForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := uploadTmpl.Execute(w, nil); err != nil {
		log.Printf("API: Upload form render failed: %v", err)
	}
}
