package api

import (
	"net/http"
	"strconv"

	"luigui/internal/core"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

const timeLayout = "2006-01-02 15:04"

func templatesPage(v view) Node {
	cards := make([]Node, 0, len(core.PromptTemplates))
	for _, t := range core.PromptTemplates {
		cards = append(cards, card(
			H2(Text(t.Name)),
			P(Class("muted"), Text(t.Description)),
			Pre(Code(Text(t.Placeholder))),
			A(Href("/?template="+t.ID), Class("btn btn-primary"), Text("Use")),
		))
	}
	return shellPage(v, Div(Class("grid"), Group(cards)))
}

func queriesPage(v view, dbs []core.Database, selected *core.Database, history []core.QuestionAnswer, errMsg string) Node {
	if len(dbs) == 0 {
		return shellPage(v, card(P(Class("muted"), Text("No databases available."))))
	}

	opts := make([]Node, 0, len(dbs))
	for _, db := range dbs {
		opts = append(opts, Option(
			Value(idString(db.ID)),
			If(selected != nil && selected.ID == db.ID, Selected()),
			Text(db.Name),
		))
	}

	items := make([]Node, 0, len(history))
	for _, qa := range history {
		when := ""
		if !qa.CreatedAt.IsZero() {
			when = qa.CreatedAt.Local().Format(timeLayout)
		}
		items = append(items, Div(
			Class("card history-item"),
			data.Show(containsExpr(qa.Question+" "+qa.SQL)),
			Div(Class("history-meta"), Span(Text(qa.PromptType)), Span(Class("muted"), Text(when))),
			P(Strong(Text(qa.Question))),
			Details(
				Summary(Text("SQL")),
				Pre(Code(Text(qa.SQL))),
			),
			If(qa.Answer != "", P(Text(qa.Answer))),
		))
	}

	var list Node
	if len(history) == 0 && errMsg == "" {
		list = card(P(Class("muted"), Text("No questions asked yet.")))
	} else {
		list = Group(items)
	}

	return shellPage(v,
		Form(
			Method("get"),
			Action("/queries"),
			Class("card inline-form"),
			Label(For("db"), Text("Database")),
			Select(ID("db"), Name("db"), Group(opts)),
			Button(Type("submit"), Class("btn btn-secondary"), Text("Show")),
		),
		notice("error", errMsg),
		Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilter("Filter by question or SQL"),
			list,
		),
	)
}

func activityPage(v view, logs []core.ActivityLog) Node {
	if len(logs) == 0 {
		return shellPage(v, card(P(Class("muted"), Text("No activity recorded on this client yet."))))
	}

	rows := make([]Node, 0, len(logs))
	for _, l := range logs {
		status := "status-ok"
		if l.Status != core.StatusSuccess {
			status = "status-error"
		}
		rows = append(rows, Tr(
			Td(Text(l.Timestamp.Local().Format(timeLayout))),
			Td(Text(l.UserEmail)),
			Td(A(Href("/queries?db="+idString(l.DatabaseID)), Text(idString(l.DatabaseID)))),
			Td(Text(l.PromptType)),
			Td(Text(strconv.FormatInt(l.DurationMs, 10)+" ms")),
			Td(Span(Class(status), Text(l.Status))),
			Td(Text(l.ErrorMessage)),
		))
	}

	return shellPage(v, Div(Class("card table-wrap"), Table(
		THead(Tr(
			Th(Text("Time")), Th(Text("User")), Th(Text("Database")), Th(Text("Template")),
			Th(Text("Duration")), Th(Text("Status")), Th(Text("Error")),
		)),
		TBody(Group(rows)),
	)))
}

func notFoundPage(w http.ResponseWriter, _ *http.Request) {
	renderHTML(w, http.StatusNotFound, errorPage("Not found", "The page you are looking for does not exist."))
}

func serveStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(stylesheet))
}

const stylesheet = `
:root { --bg: #f6f7f9; --fg: #1c2430; --muted: #6b7683; --line: #dde1e6; --accent: #2f6fde; --danger: #c43d3d; --ok: #2e8b57; }
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, sans-serif; background: var(--bg); color: var(--fg); }
a { color: var(--accent); text-decoration: none; }
.muted { color: var(--muted); }
.shell { display: grid; grid-template-columns: 240px 1fr; min-height: 100vh; }
.shell.collapsed { grid-template-columns: 64px 1fr; }
.shell.collapsed .nav-link, .shell.collapsed .brand a { font-size: 0; }
.shell.collapsed .nav-link::first-letter, .shell.collapsed .brand a::first-letter { font-size: 1rem; }
.sidebar { background: #fff; border-right: 1px solid var(--line); padding: 1rem; display: flex; flex-direction: column; gap: 1rem; }
.sidebar ul { list-style: none; margin: 0; padding: 0; }
.nav-link { display: block; padding: .5rem .75rem; border-radius: 6px; color: var(--fg); }
.nav-link.active { background: #e8effc; color: var(--accent); }
.sidebar-toggle { margin-top: auto; }
.brand { font-weight: 700; font-size: 1.2rem; }
.content { display: flex; flex-direction: column; }
.topbar { display: flex; justify-content: space-between; align-items: center; padding: 1rem 1.5rem; border-bottom: 1px solid var(--line); background: #fff; }
.topbar .user { display: flex; align-items: center; gap: .75rem; }
.topbar .user p { margin: 0; }
.avatar { width: 36px; height: 36px; border-radius: 50%; background: var(--accent); color: #fff; display: inline-flex; align-items: center; justify-content: center; font-weight: 600; }
main { padding: 1.5rem; display: flex; flex-direction: column; gap: 1rem; }
.card { background: #fff; border: 1px solid var(--line); border-radius: 8px; padding: 1rem 1.25rem; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 1rem; }
form { display: flex; flex-direction: column; gap: .5rem; }
.inline-form { flex-direction: row; align-items: center; }
input, select, textarea { font: inherit; padding: .5rem; border: 1px solid var(--line); border-radius: 6px; }
.btn { display: inline-block; padding: .5rem 1rem; border-radius: 6px; border: 1px solid transparent; cursor: pointer; font: inherit; }
.btn-primary { background: var(--accent); color: #fff; }
.btn-secondary { background: #fff; border-color: var(--line); color: var(--fg); }
.btn-ghost { background: transparent; color: var(--muted); }
.btn-danger { background: var(--danger); color: #fff; }
.actions { display: flex; gap: .5rem; justify-content: flex-end; }
.actions-reversed { flex-direction: row-reverse; justify-content: flex-start; }
.row-actions { display: flex; gap: .75rem; }
.notice { padding: .75rem 1rem; border-radius: 6px; }
.notice-error { background: #fdecec; color: var(--danger); }
.notice-success { background: #e9f6ef; color: var(--ok); }
.tabs { display: flex; gap: .5rem; }
.tab { padding: .5rem 1rem; border-radius: 6px; background: #fff; border: 1px solid var(--line); color: var(--fg); }
.tab.active { border-color: var(--accent); color: var(--accent); }
.steps { display: flex; gap: 1rem; list-style: none; padding: 0; }
.step { color: var(--muted); }
.step.active { color: var(--accent); font-weight: 600; }
.step.done { color: var(--ok); }
.choice { display: grid; grid-template-columns: auto 1fr; gap: .25rem .5rem; padding: .75rem; border: 1px solid var(--line); border-radius: 6px; }
.choice .muted { grid-column: 2; }
.dialog { position: fixed; inset: 0; margin: auto; max-width: 420px; border: 1px solid var(--line); border-radius: 8px; padding: 1.5rem; box-shadow: 0 10px 40px rgba(0,0,0,.2); }
pre { background: #f0f2f5; padding: .75rem; border-radius: 6px; overflow-x: auto; white-space: pre-wrap; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: .5rem; border-bottom: 1px solid var(--line); }
.history-meta { display: flex; justify-content: space-between; font-size: .85rem; }
.status-ok { color: var(--ok); }
.status-error { color: var(--danger); }
.auth-body { display: flex; justify-content: center; align-items: center; min-height: 100vh; }
.auth-wrap { width: 100%; max-width: 380px; background: #fff; border: 1px solid var(--line); border-radius: 8px; padding: 2rem; }
`
