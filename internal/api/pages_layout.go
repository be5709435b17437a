package api

import (
	"net/http"
	"strconv"
	"strings"

	"luigui/internal/core"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

func renderHTML(w http.ResponseWriter, status int, node Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

type navItem struct {
	Label     string
	Href      string
	AdminOnly bool
}

var navItems = []navItem{
	{Label: "New question", Href: "/"},
	{Label: "History", Href: "/queries"},
	{Label: "Databases", Href: "/databases"},
	{Label: "Templates", Href: "/templates"},
	{Label: "Activity", Href: "/activity"},
	{Label: "Add database", Href: "/databases/new", AdminOnly: true},
}

// view is what every shell page needs from the request.
type view struct {
	r         *http.Request
	user      *core.User
	collapsed bool
}

func (v view) path() string { return v.r.URL.Path }

// pageTitle names the header for a path.
func pageTitle(path string) string {
	switch {
	case path == "/":
		return "New question"
	case path == "/queries":
		return "History"
	case path == "/templates":
		return "Templates"
	case path == "/activity":
		return "Activity"
	case path == "/databases/new":
		return "Add database"
	case strings.HasSuffix(path, "/edit"):
		return "Edit database"
	case strings.HasSuffix(path, "/tables"):
		return "Tables"
	case strings.HasSuffix(path, "/users"):
		return "User access"
	case strings.HasPrefix(path, "/databases"):
		return "Databases"
	}
	return "luigui"
}

func isActive(current, href string) bool {
	if href == "/" {
		return current == "/"
	}
	if href == "/databases" {
		return strings.HasPrefix(current, "/databases") && current != "/databases/new"
	}
	return current == href
}

func headNodes(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | luigui")),
		Link(Rel("stylesheet"), Href("/static/app.css")),
		Script(Type("module"), Src(datastarScript)),
	)
}

func sidebar(v view) Node {
	items := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		if item.AdminOnly && !v.user.IsAdmin() {
			continue
		}
		cls := "nav-link"
		if isActive(v.path(), item.Href) {
			cls += " active"
		}
		items = append(items, Li(A(Href(item.Href), Class(cls), Title(item.Label), Text(item.Label))))
	}

	toggleLabel := "Collapse"
	if v.collapsed {
		toggleLabel = "Expand"
	}

	return Aside(
		Class("sidebar"),
		Div(Class("brand"), A(Href("/"), Text("luigui"))),
		Nav(Ul(Group(items))),
		Form(
			Method("post"),
			Action("/preferences/sidebar"),
			Class("sidebar-toggle"),
			csrfField(v.r),
			Input(Type("hidden"), Name("collapsed"), Value(strconv.FormatBool(!v.collapsed))),
			Input(Type("hidden"), Name("return"), Value(v.r.URL.RequestURI())),
			Button(Type("submit"), Class("btn btn-ghost"), Text(toggleLabel)),
		),
	)
}

func header(v view) Node {
	name := v.user.DisplayName()
	return Header(
		Class("topbar"),
		H1(Class("page-title"), Text(pageTitle(v.path()))),
		Div(
			Class("user"),
			Span(Class("avatar"), Text(core.Initials(name))),
			Div(
				Strong(Text(name)),
				P(Class("muted"), Text(v.user.Email)),
			),
			Form(
				Method("post"),
				Action("/auth/logout"),
				csrfField(v.r),
				Button(Type("submit"), Class("btn btn-secondary"), Text("Sign out")),
			),
		),
	)
}

// shellPage is the signed-in layout: sidebar, header and content.
func shellPage(v view, body ...Node) Node {
	layoutClass := "shell"
	if v.collapsed {
		layoutClass += " collapsed"
	}
	return Doctype(HTML(
		Lang("en"),
		headNodes(pageTitle(v.path())),
		Body(
			Div(
				Class(layoutClass),
				sidebar(v),
				Div(
					Class("content"),
					header(v),
					Main(Group(body)),
				),
			),
		),
	))
}

// authPage is the layout for sign-in and registration.
func authPage(title string, body ...Node) Node {
	return Doctype(HTML(
		Lang("en"),
		headNodes(title),
		Body(
			Class("auth-body"),
			Main(Class("auth-wrap"), Div(Class("brand"), Text("luigui")), Group(body)),
		),
	))
}

func loadingPage() Node {
	return Doctype(HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Attr("http-equiv", "refresh"), Content("1")),
			TitleEl(Text("Loading | luigui")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(Main(Class("auth-wrap"), P(Class("muted"), Text("Loading...")))),
	))
}

func errorPage(title, message string) Node {
	return Doctype(HTML(
		Lang("en"),
		headNodes(title),
		Body(
			Main(
				Class("auth-wrap"),
				H1(Text(title)),
				P(Text(message)),
				P(A(Href("/"), Text("Back to start"))),
			),
		),
	))
}

func notice(kind, msg string) Node {
	if msg == "" {
		return Group(nil)
	}
	return Div(Class("notice notice-"+kind), Attr("role", "alert"), Text(msg))
}

func card(children ...Node) Node {
	return Div(Class("card"), Group(children))
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func hidden(name, value string) Node {
	return Input(Type("hidden"), Name(name), Value(value))
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
