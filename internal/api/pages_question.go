package api

import (
	"net/url"

	"luigui/internal/core"
	"luigui/internal/service"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type questionForm struct {
	Databases []core.Database
	Selected  *core.Database
	Template  core.PromptTemplate
	Question  string
}

func (f questionForm) selectedID() string {
	if f.Selected == nil {
		return ""
	}
	return idString(f.Selected.ID)
}

func questionPage(v view, f questionForm, out *service.Outcome) Node {
	if len(f.Databases) == 0 {
		return shellPage(v, card(
			H2(Text("No databases yet")),
			P(Class("muted"), Text("Ask an administrator to register a database and grant you access.")),
			If(v.user.IsAdmin(), A(Href("/databases/new"), Class("btn btn-primary"), Text("Add database"))),
		))
	}

	var errMsg string
	if out != nil {
		errMsg = out.Error
	}

	return shellPage(v,
		templateTabs(f),
		card(
			H2(Text(f.Template.Title)),
			P(Class("muted"), Text(f.Template.Description)),
			notice("error", errMsg),
			Form(
				Method("post"),
				Action("/ask"),
				Class("question-form"),
				csrfField(v.r),
				hidden("template", f.Template.ID),
				Label(For("db"), Text("Database")),
				databaseSelect(f),
				Label(For("question"), Text("Question")),
				Textarea(ID("question"), Name("question"), Attr("rows", "5"), Placeholder(f.Template.Placeholder), Required(), Text(f.Question)),
				Button(Type("submit"), Class("btn btn-primary"), Text("Send")),
			),
		),
		passwordDialog(v, f, out),
		answerCard(f, out),
	)
}

func templateTabs(f questionForm) Node {
	tabs := make([]Node, 0, len(core.PromptTemplates))
	for _, t := range core.PromptTemplates {
		cls := "tab"
		if t.ID == f.Template.ID {
			cls += " active"
		}
		q := url.Values{}
		q.Set("template", t.ID)
		if id := f.selectedID(); id != "" {
			q.Set("db", id)
		}
		tabs = append(tabs, A(Href("/?"+q.Encode()), Class(cls), Text(t.Name)))
	}
	return Nav(Class("tabs"), Group(tabs))
}

func databaseSelect(f questionForm) Node {
	opts := make([]Node, 0, len(f.Databases))
	for _, db := range f.Databases {
		label := db.Name
		if !db.IsDirect() {
			label += " (schema only)"
		}
		opts = append(opts, Option(
			Value(idString(db.ID)),
			If(f.Selected != nil && f.Selected.ID == db.ID, Selected()),
			Text(label),
		))
	}
	return Select(ID("db"), Name("db"), Required(), Group(opts))
}

// passwordDialog asks for the direct database's password and resubmits the
// same question.
func passwordDialog(v view, f questionForm, out *service.Outcome) Node {
	if out == nil || !out.NeedPassword || f.Selected == nil {
		return Group(nil)
	}
	msg := ""
	if out.PasswordError {
		msg = "The password was rejected. Enter it again."
	}
	return El("dialog",
		Attr("open"),
		Class("dialog"),
		H2(Text("Database password")),
		P(Class("muted"), Text("Enter the password for "+f.Selected.Name+". It is kept for this session only.")),
		notice("error", msg),
		Form(
			Method("post"),
			Action("/ask"),
			csrfField(v.r),
			hidden("db", idString(f.Selected.ID)),
			hidden("template", f.Template.ID),
			hidden("question", f.Question),
			Label(For("db_password"), Text("Password")),
			Input(ID("db_password"), Type("password"), Name("db_password"), AutoComplete("off"), Required(), Attr("autofocus")),
			Div(Class("actions"),
				A(Href("/?"+url.Values{"db": {idString(f.Selected.ID)}, "template": {f.Template.ID}}.Encode()), Class("btn btn-secondary"), Text("Cancel")),
				Button(Type("submit"), Class("btn btn-primary"), Text("Continue")),
			),
		),
	)
}

func answerCard(f questionForm, out *service.Outcome) Node {
	if out == nil || out.Answer == nil {
		return Group(nil)
	}
	return card(
		Details(
			If(out.SQLExpanded, Attr("open")),
			Summary(Text("SQL")),
			Pre(Code(Text(out.Answer.SQL))),
		),
		If(out.ShowAnswer, Div(
			Class("answer"),
			H3(Text("Answer")),
			P(Text(out.Answer.Answer)),
		)),
	)
}
