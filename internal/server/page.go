package server

// indexTemplate is the live view. Module details are fetched lazily; the
// list is refreshed when /ws announces a generation, with /summary polling
// as a fallback when the websocket is unavailable.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>livedoc - {{.Root}}</title>
<style>
:root { --bg: #f4f4f9; --text: #333; --accent: #007bff; --card: #fff; --muted: #666; }
[data-theme="dark"] { --bg: #0f1115; --text: #ddd; --accent: #4ea1ff; --card: #15171c; --muted: #999; }
body { font-family: -apple-system, "Segoe UI", Arial, sans-serif; line-height: 1.5; background: var(--bg); color: var(--text); margin: 0; }
.container { max-width: 1100px; margin: 0 auto; padding: 20px; }
.controls { display: flex; gap: 8px; margin-bottom: 12px; align-items: center; }
.search { padding: 6px; width: 60%; }
.status { color: var(--muted); font-size: 0.85em; }
.module-list { display: flex; flex-wrap: wrap; gap: 8px; }
.module { background: var(--card); padding: 10px; border-radius: 6px; box-shadow: 0 1px 2px rgba(0,0,0,0.08); cursor: pointer; min-width: 220px; }
.module .kind { color: var(--accent); font-size: 0.75em; text-transform: uppercase; }
.snippet { color: var(--muted); font-size: 0.9em; margin-top: 4px; }
pre { white-space: pre-wrap; word-break: break-word; background: var(--card); padding: 10px; border: 1px solid #ddd; }
code { font-family: ui-monospace, Menlo, monospace; }
</style>
</head>
<body>
<div class="container">
  <h1>{{.Root}}</h1>
  <div class="controls">
    <input id="search" class="search" placeholder="Search modules, classes, functions..." autofocus>
    <select id="theme"><option value="light">Light</option><option value="dark">Dark</option></select>
    <span id="status" class="status">generation {{.Generation}}</span>
  </div>
  {{if eq .Generation 0}}<p id="empty">No documentation generated yet.</p>{{end}}
  <div id="modules" class="module-list"></div>
  <hr>
  <div id="detail"></div>
</div>
<script type="application/json" id="modules-json">{{.Modules}}</script>
<script>
(function () {
  var lastTS = {{.LastTS}};
  var modules = JSON.parse(document.getElementById("modules-json").textContent || "[]") || [];
  var list = document.getElementById("modules");
  var detail = document.getElementById("detail");
  var search = document.getElementById("search");
  var status = document.getElementById("status");

  document.getElementById("theme").addEventListener("change", function (e) {
    document.body.setAttribute("data-theme", e.target.value);
  });

  function el(tag, cls, text) {
    var e = document.createElement(tag);
    if (cls) { e.className = cls; }
    if (text) { e.textContent = text; }
    return e;
  }

  function renderList(items) {
    list.innerHTML = "";
    (items || []).forEach(function (item) {
      var card = el("div", "module");
      card.appendChild(el("div", "kind", item.type));
      card.appendChild(el("div", "", item.fqn || item.key));
      if (item.snippet) { card.appendChild(el("div", "snippet", item.snippet)); }
      card.onclick = function () { loadModule(item.file); };
      list.appendChild(card);
    });
  }

  function sig(fn) {
    var parts = (fn.signature || []).map(function (p) {
      var s = (p.kind === "vararg" ? "*" : p.kind === "varkw" ? "**" : "") + p.name;
      if (p.annotation) { s += ": " + p.annotation; }
      if (p.default) { s += "=" + p.default; }
      return s;
    });
    var out = fn.fqn + "(" + parts.join(", ") + ")";
    if (fn.returns) { out += " -> " + fn.returns; }
    return out;
  }

  function section(title, items, render) {
    if (!items || !items.length) { return; }
    detail.appendChild(el("h3", "", title));
    var ul = el("ul");
    items.forEach(function (x) { ul.appendChild(render(x)); });
    detail.appendChild(ul);
  }

  function renderModule(d) {
    detail.innerHTML = "";
    detail.appendChild(el("h2", "", d.file));
    if (d.docstring) { detail.appendChild(el("pre", "", d.docstring)); }
    section("Constants", d.constants, function (c) { return el("li", "", c.name + " = " + c.value); });
    section("Classes", d.classes, function (c) {
      var li = el("li");
      var head = c.name + (c.bases && c.bases.length ? "(" + c.bases.join(", ") + ")" : "");
      li.appendChild(el("code", "", head));
      if (c.docstring) { li.appendChild(el("pre", "", c.docstring)); }
      var ul = el("ul");
      (c.methods || []).forEach(function (m) { ul.appendChild(el("li", "", sig(m))); });
      li.appendChild(ul);
      return li;
    });
    section("Functions", d.functions, function (f) {
      var li = el("li");
      li.appendChild(el("code", "", sig(f)));
      if (f.docstring) { li.appendChild(el("pre", "", f.docstring)); }
      return li;
    });
  }

  function loadModule(file) {
    fetch("/module/" + file.split("/").map(encodeURIComponent).join("/"))
      .then(function (r) { return r.ok ? r.json() : Promise.reject(r.status); })
      .then(function (j) { renderModule(j.doc); })
      .catch(function () { detail.innerHTML = "<p>Error loading module</p>"; });
  }

  var timer = null;
  function doSearch(q) {
    fetch("/search?q=" + encodeURIComponent(q || ""))
      .then(function (r) { return r.json(); })
      .then(function (j) { renderList(j.results); })
      .catch(function () {});
  }
  search.addEventListener("input", function () {
    clearTimeout(timer);
    timer = setTimeout(function () { doSearch(search.value); }, 250);
  });

  function refresh() {
    if (search.value) { doSearch(search.value); return; }
    fetch("/modules").then(function (r) { return r.json(); }).then(function (j) {
      modules = j.modules || [];
      lastTS = j.timestamp || lastTS;
      var empty = document.getElementById("empty");
      if (empty && modules.length) { empty.remove(); }
      renderList(modules);
    }).catch(function () {});
  }

  function poll() {
    fetch("/summary?ts=" + lastTS).then(function (r) { return r.json(); }).then(function (j) {
      if (j.updated) { status.textContent = "generation " + j.generation; refresh(); }
    }).catch(function () {});
  }

  var pollTimer = null;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function () { clearInterval(pollTimer); pollTimer = null; };
    ws.onmessage = function (e) {
      var m = JSON.parse(e.data);
      if (m.type === "generation" && m.timestamp > lastTS) {
        status.textContent = "generation " + m.generation + " (" + m.modules + " modules)";
        refresh();
      }
    };
    ws.onclose = function () {
      if (!pollTimer) { pollTimer = setInterval(poll, 5000); }
      setTimeout(connect, 5000);
    };
  }

  renderList(modules);
  connect();
})();
</script>
</body>
</html>
`
