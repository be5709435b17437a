package api

import (
	"strconv"
	"strings"

	"luigui/internal/core"
	"luigui/internal/service"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

var noticeMessages = map[string]string{
	"saved":   "Changes saved.",
	"created": "Table added.",
	"deleted": "Table removed.",
}

func quickFilter(placeholder string) Node {
	return Div(
		Class("card"),
		Label(Text("Quick filter")),
		Input(Type("text"), data.Bind("q"), Placeholder(placeholder)),
	)
}

func kindLabel(k core.ConnectionKind) string {
	if k == core.KindDirect {
		return "Direct connection"
	}
	return "Schema only"
}

func databasesPage(v view, dbs []core.Database, noticeCode string) Node {
	admin := v.user.IsAdmin()

	rows := make([]Node, 0, len(dbs))
	for _, db := range dbs {
		id := idString(db.ID)
		location := ""
		if db.IsDirect() {
			location = db.Host + ":" + db.Port
		}
		rows = append(rows, Tr(
			data.Show(containsExpr(db.Name+" "+db.Host)),
			Td(A(Href("/?db="+id), Text(db.Name))),
			Td(Text(kindLabel(db.Kind))),
			Td(Text(location)),
			Td(
				Class("row-actions"),
				A(Href("/queries?db="+id), Text("History")),
				A(Href("/databases/"+id+"/tables"), Text("Tables")),
				If(admin, Group([]Node{
					A(Href("/databases/"+id+"/edit"), Text("Edit")),
					A(Href("/databases/"+id+"/users"), Text("Access")),
				})),
			),
		))
	}

	if len(dbs) == 0 {
		return shellPage(v, card(
			P(Class("muted"), Text("No databases available.")),
			If(admin, A(Href("/databases/new"), Class("btn btn-primary"), Text("Add database"))),
		))
	}

	return shellPage(v,
		notice("success", noticeMessages[noticeCode]),
		Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilter("Filter by name or host"),
			Div(Class("card table-wrap"), Table(
				THead(Tr(Th(Text("Name")), Th(Text("Kind")), Th(Text("Host")), Th())),
				TBody(Group(rows)),
			)),
		),
	)
}

var stepTitles = map[service.WizardStep]string{
	service.StepName:    "Name",
	service.StepKind:    "Connection kind",
	service.StepDetails: "Details",
}

func wizardPage(v view, w *service.Wizard, kind, msg string) Node {
	action := "/databases/new"
	title := "Add database"
	if w.IsEdit() {
		action = "/databases/" + idString(w.EditingID) + "/edit"
		title = "Edit database"
	}

	steps := make([]Node, 0, 3)
	for s := service.StepName; s <= service.StepDetails; s++ {
		cls := "step"
		if s == w.Step {
			cls += " active"
		} else if s < w.Step {
			cls += " done"
		}
		steps = append(steps, Li(Class(cls), Text(stepTitles[s])))
	}

	return shellPage(v, card(
		H2(Text(title)),
		Ol(Class("steps"), Group(steps)),
		notice(kind, msg),
		Form(
			Method("post"),
			Action(action),
			Class("wizard"),
			data.Signals(wizardSignals(w)),
			csrfField(v.r),
			hidden("step", strconv.Itoa(int(w.Step))),
			wizardCarried(w),
			wizardStepFields(w),
			// Primary button first so Enter moves forward; the row is
			// reversed in CSS.
			Div(
				Class("actions actions-reversed"),
				If(w.IsLastStep(),
					Button(Type("submit"), Name("action"), Value("submit"), Class("btn btn-primary"), nextDisabled(w), Text("Save")),
				),
				If(!w.IsLastStep(),
					Button(Type("submit"), Name("action"), Value("next"), Class("btn btn-primary"), nextDisabled(w), Text("Next")),
				),
				If(w.IsLastStep() && w.Kind == core.KindDirect, Button(Type("submit"), Name("action"), Value("check"), Class("btn btn-ghost"), Text("Test connection"))),
				If(w.Step > service.StepName, Button(Type("submit"), Name("action"), Value("back"), Attr("formnovalidate"), Class("btn btn-secondary"), Text("Back"))),
			),
		),
	))
}

func wizardSignal(field string) string {
	return "wiz" + strings.ToUpper(field[:1]) + field[1:]
}

// wizardSignals seeds one signal per required field of the current step.
func wizardSignals(w *service.Wizard) map[string]any {
	signals := map[string]any{}
	for _, f := range w.Required() {
		signals[wizardSignal(f)] = w.Field(f)
	}
	return signals
}

// nextDisabled disables the step button until every required field holds
// something other than whitespace.
func nextDisabled(w *service.Wizard) Node {
	conds := make([]string, 0, len(w.Required()))
	for _, f := range w.Required() {
		conds = append(conds, "String($"+wizardSignal(f)+").trim() === ''")
	}
	if len(conds) == 0 {
		return Group(nil)
	}
	return Group([]Node{
		Attr("data-attr:disabled", strings.Join(conds, " || ")),
		If(w.NextDisabled(), Disabled()),
	})
}

// bind ties an input to its field's signal when the step requires it.
func bind(w *service.Wizard, field string) Node {
	for _, f := range w.Required() {
		if f == field {
			return data.Bind(wizardSignal(field))
		}
	}
	return Group(nil)
}

// wizardCarried keeps the values of the steps not on screen. The password
// only ever travels in its own input on the details step.
func wizardCarried(w *service.Wizard) Node {
	var nodes []Node
	if w.Step != service.StepName {
		nodes = append(nodes, hidden("name", w.Name))
	}
	if w.Step != service.StepKind {
		nodes = append(nodes, hidden("kind", string(w.Kind)))
	}
	if w.Step != service.StepDetails {
		nodes = append(nodes,
			hidden("host", w.Host),
			hidden("port", w.Port),
			hidden("username", w.Username),
			hidden("schemas", w.Schemas),
		)
	}
	return Group(nodes)
}

func wizardStepFields(w *service.Wizard) Node {
	switch w.Step {
	case service.StepName:
		return Group([]Node{
			Label(For("name"), Text("Database name")),
			Input(ID("name"), Type("text"), Name("name"), Value(w.Name), bind(w, "name"), Required()),
			P(Class("muted"), Text("For direct connections this is also the database name on the server.")),
		})
	case service.StepKind:
		return Group([]Node{
			kindOption(w, core.KindDirect, "Connect to a PostgreSQL server. Questions are answered with live data."),
			kindOption(w, core.KindSchema, "Paste the schema only. Questions produce SQL you run yourself."),
		})
	}

	if w.Kind == core.KindDirect {
		pwHint := ""
		if w.IsEdit() {
			pwHint = "Leave empty to keep the current password."
		}
		return Group([]Node{
			Label(For("host"), Text("Host")),
			Input(ID("host"), Type("text"), Name("host"), Value(w.Host), bind(w, "host"), Required()),
			Label(For("port"), Text("Port")),
			Input(ID("port"), Type("number"), Name("port"), Value(w.Port), bind(w, "port"), Attr("min", "1"), Attr("max", "65535"), Required()),
			Label(For("username"), Text("Username")),
			Input(ID("username"), Type("text"), Name("username"), Value(w.Username), bind(w, "username"), Required()),
			Label(For("password"), Text("Password")),
			Input(ID("password"), Type("password"), Name("password"), Value(w.Password), bind(w, "password"), AutoComplete("new-password"), If(!w.IsEdit(), Required())),
			If(pwHint != "", P(Class("muted"), Text(pwHint))),
		})
	}
	return Group([]Node{
		P(Text("Run this query on your database and paste the result below.")),
		Pre(Code(Text(core.SchemaExtractionScript))),
		Label(For("schemas"), Text("Schema JSON")),
		Textarea(ID("schemas"), Name("schemas"), Attr("rows", "10"), bind(w, "schemas"), Required(), Text(w.Schemas)),
	})
}

func kindOption(w *service.Wizard, k core.ConnectionKind, desc string) Node {
	id := "kind-" + string(k)
	return Label(
		For(id),
		Class("choice"),
		Input(ID(id), Type("radio"), Name("kind"), Value(string(k)), If(w.Kind == k, Checked()), bind(w, "kind"), Required()),
		Strong(Text(kindLabel(k))),
		Span(Class("muted"), Text(desc)),
	)
}

func tablesPage(v view, db *core.Database, tables []core.Table, okMsg, errMsg string) Node {
	admin := v.user.IsAdmin()
	base := "/databases/" + idString(db.ID) + "/tables"

	rows := make([]Node, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, Tr(
			Td(Text(t.Name)),
			Td(
				Class("row-actions"),
				If(admin, Form(
					Method("post"),
					Action(base+"/"+idString(t.ID)+"/delete"),
					csrfField(v.r),
					Button(Type("submit"), Class("btn btn-danger"), Text("Remove")),
				)),
			),
		))
	}

	var list Node
	if len(tables) == 0 {
		list = P(Class("muted"), Text("No tables registered."))
	} else {
		list = Div(Class("table-wrap"), Table(
			THead(Tr(Th(Text("Table")), Th())),
			TBody(Group(rows)),
		))
	}

	return shellPage(v,
		notice("success", noticeMessages[okMsg]),
		notice("error", errMsg),
		card(
			H2(Text(db.Name)),
			P(Class("muted"), Text(kindLabel(db.Kind))),
			list,
		),
		If(admin, card(
			H3(Text("Add table")),
			tableForm(v, db, base),
		)),
	)
}

func tableForm(v view, db *core.Database, action string) Node {
	if db.IsDirect() {
		return Form(
			Method("post"),
			Action(action),
			csrfField(v.r),
			Label(For("table-name"), Text("Table name")),
			Input(ID("table-name"), Type("text"), Name("name"), Required()),
			Label(For("table-db-password"), Text("Database password")),
			Input(ID("table-db-password"), Type("password"), Name("db_password"), AutoComplete("off"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Add")),
		)
	}
	return Form(
		Method("post"),
		Action(action),
		csrfField(v.r),
		Label(For("table-schemas"), Text("Schema JSON")),
		Textarea(ID("table-schemas"), Name("schemas"), Attr("rows", "8"), Required()),
		Button(Type("submit"), Class("btn btn-primary"), Text("Add")),
	)
}

func usersPage(v view, db *core.Database, editor *service.AccessEditor, noticeCode, errMsg string) Node {
	employees := editor.Employees("")

	rows := make([]Node, 0, len(employees))
	for _, u := range employees {
		id := "user-" + idString(u.ID)
		rows = append(rows, Tr(
			data.Show(containsExpr(u.Email)),
			Td(Input(ID(id), Type("checkbox"), Name("access"), Value(idString(u.ID)), If(editor.HasAccess(u.ID), Checked()))),
			Td(Label(For(id), Text(u.DisplayName()))),
			Td(Text(u.Email)),
		))
	}

	var body Node
	if len(employees) == 0 {
		body = P(Class("muted"), Text("There are no employees to grant access to."))
	} else {
		body = Form(
			Method("post"),
			Action("/databases/"+idString(db.ID)+"/users"),
			csrfField(v.r),
			Div(Class("table-wrap"), Table(
				THead(Tr(Th(Text("Access")), Th(Text("Name")), Th(Text("E-mail")))),
				TBody(Group(rows)),
			)),
			Button(Type("submit"), Class("btn btn-primary"), Text("Save")),
		)
	}

	return shellPage(v,
		notice("success", noticeMessages[noticeCode]),
		notice("error", errMsg),
		Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilter("Filter by e-mail"),
			card(H2(Text(db.Name)), body),
		),
	)
}
