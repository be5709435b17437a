package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"luigui/internal/backend"
	"luigui/internal/core"
	"luigui/internal/logger"
	"luigui/internal/service"

	"github.com/go-chi/chi/v5"
)

const activityLimit = 100

type WebHandler struct {
	client    *backend.Client
	activity  core.ActivityRepository
	extractor *service.SchemaExtractor
}

func NewWebHandler(client *backend.Client, activity core.ActivityRepository, extractor *service.SchemaExtractor) *WebHandler {
	return &WebHandler{client: client, activity: activity, extractor: extractor}
}

func (h *WebHandler) view(r *http.Request) view {
	st := stateFrom(r.Context())
	return view{r: r, user: st.session.User(), collapsed: st.store.SidebarCollapsed()}
}

func (h *WebHandler) conn(r *http.Request) *backend.Conn {
	return h.client.Session(stateFrom(r.Context()).session.Token())
}

// fail renders err inside the shell. A rejected token ends the session.
func (h *WebHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrUnauthorized) {
		st := stateFrom(r.Context())
		if cerr := st.store.Clear(); cerr != nil {
			logger.Error.Printf("Failed to clear session: %v", cerr)
		}
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}

	status := http.StatusBadGateway
	var apiErr *core.APIError
	switch {
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		status = http.StatusNotFound
	}
	logger.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	renderHTML(w, status, shellPage(h.view(r), notice("error", core.UserMessage(err))))
}

func (h *WebHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if stateFrom(r.Context()).session.User().IsAdmin() {
		return true
	}
	renderHTML(w, http.StatusForbidden, shellPage(h.view(r), notice("error", core.ErrForbidden.Error())))
	return false
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func findDatabase(dbs []core.Database, id int64) *core.Database {
	for i := range dbs {
		if dbs[i].ID == id {
			return &dbs[i]
		}
	}
	return nil
}

// --- Question page ---

func (h *WebHandler) QuestionPage(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.conn(r).ListDatabases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	form := questionForm{
		Databases: dbs,
		Template:  core.TemplateByID(q.Get("template")),
		Question:  q.Get("question"),
	}
	if id, err := strconv.ParseInt(q.Get("db"), 10, 64); err == nil {
		form.Selected = findDatabase(dbs, id)
	}
	if form.Selected == nil && len(dbs) > 0 {
		form.Selected = &dbs[0]
	}

	renderHTML(w, http.StatusOK, questionPage(h.view(r), form, nil))
}

func (h *WebHandler) Ask(w http.ResponseWriter, r *http.Request) {
	conn := h.conn(r)
	dbs, err := conn.ListDatabases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	form := questionForm{
		Databases: dbs,
		Template:  core.TemplateByID(r.FormValue("template")),
		Question:  r.FormValue("question"),
	}
	if id, err := strconv.ParseInt(r.FormValue("db"), 10, 64); err == nil {
		form.Selected = findDatabase(dbs, id)
	}

	st := stateFrom(r.Context())
	svc := service.NewQuestionService(conn, st.store, h.activity)
	out := svc.Submit(r.Context(), service.Submission{
		Database:   form.Selected,
		Question:   form.Question,
		TemplateID: form.Template.ID,
		Password:   r.FormValue("db_password"),
		UserEmail:  st.session.User().Email,
	})

	renderHTML(w, http.StatusOK, questionPage(h.view(r), form, out))
}

// --- Templates, history, activity ---

func (h *WebHandler) TemplatesPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, templatesPage(h.view(r)))
}

func (h *WebHandler) QueriesPage(w http.ResponseWriter, r *http.Request) {
	conn := h.conn(r)
	dbs, err := conn.ListDatabases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var selected *core.Database
	if id, err := strconv.ParseInt(r.URL.Query().Get("db"), 10, 64); err == nil {
		selected = findDatabase(dbs, id)
	}
	if selected == nil && len(dbs) > 0 {
		selected = &dbs[0]
	}

	var history []core.QuestionAnswer
	errMsg := ""
	if selected != nil {
		history, err = conn.ListQuestions(r.Context(), selected.ID)
		if err != nil {
			if errors.Is(err, core.ErrUnauthorized) {
				h.fail(w, r, err)
				return
			}
			errMsg = core.UserMessage(err)
		}
	}

	renderHTML(w, http.StatusOK, queriesPage(h.view(r), dbs, selected, history, errMsg))
}

func (h *WebHandler) ActivityPage(w http.ResponseWriter, r *http.Request) {
	logs, err := h.activity.GetRecent(r.Context(), activityLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user := stateFrom(r.Context()).session.User()
	if !user.IsAdmin() {
		own := logs[:0]
		for _, l := range logs {
			if strings.EqualFold(l.UserEmail, user.Email) {
				own = append(own, l)
			}
		}
		logs = own
	}
	renderHTML(w, http.StatusOK, activityPage(h.view(r), logs))
}

// --- Databases ---

func (h *WebHandler) DatabasesList(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.conn(r).ListDatabases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, databasesPage(h.view(r), dbs, r.URL.Query().Get("notice")))
}

func (h *WebHandler) NewDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	renderHTML(w, http.StatusOK, wizardPage(h.view(r), service.NewWizard(), "", ""))
}

func (h *WebHandler) EditDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	db, err := h.conn(r).GetDatabase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, wizardPage(h.view(r), service.WizardFor(db), "", ""))
}

// SaveDatabase advances, rewinds, checks or submits the wizard.
func (h *WebHandler) SaveDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	wiz := wizardFromForm(r)
	if editID := chi.URLParam(r, "id"); editID != "" {
		id, err := pathID(r, "id")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		wiz.EditingID = id
	}

	switch r.FormValue("action") {
	case "back":
		wiz.Back()
	case "check":
		if wiz.Kind != core.KindDirect {
			break
		}
		err := h.extractor.CheckConnection(r.Context(), service.DirectConnection{
			Host: wiz.Host, Port: wiz.Port, Username: wiz.Username, Password: wiz.Password, DBName: strings.TrimSpace(wiz.Name),
		})
		if err != nil {
			renderHTML(w, http.StatusOK, wizardPage(h.view(r), wiz, "error", "Connection failed: "+err.Error()))
			return
		}
		renderHTML(w, http.StatusOK, wizardPage(h.view(r), wiz, "success", "Connection succeeded."))
		return
	case "submit":
		db, err := wiz.Submit(r.Context(), h.conn(r))
		if err != nil {
			if errors.Is(err, core.ErrUnauthorized) {
				h.fail(w, r, err)
				return
			}
			renderHTML(w, http.StatusOK, wizardPage(h.view(r), wiz, "error", core.UserMessage(err)))
			return
		}
		logger.Info.Printf("Database %q saved (id %d)", db.Name, db.ID)
		http.Redirect(w, r, "/databases?notice=saved", http.StatusSeeOther)
		return
	default:
		if err := wiz.Next(); err != nil {
			renderHTML(w, http.StatusOK, wizardPage(h.view(r), wiz, "error", err.Error()))
			return
		}
	}
	renderHTML(w, http.StatusOK, wizardPage(h.view(r), wiz, "", ""))
}

func wizardFromForm(r *http.Request) *service.Wizard {
	step, err := strconv.Atoi(r.FormValue("step"))
	if err != nil || step < int(service.StepName) || step > int(service.StepDetails) {
		step = int(service.StepName)
	}
	kind := core.ConnectionKind(r.FormValue("kind"))
	if !kind.Valid() {
		kind = ""
	}
	return &service.Wizard{
		Step:     service.WizardStep(step),
		Name:     r.FormValue("name"),
		Kind:     kind,
		Host:     r.FormValue("host"),
		Port:     r.FormValue("port"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Schemas:  r.FormValue("schemas"),
	}
}

// --- Tables ---

func (h *WebHandler) TablesPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderTables(w, r, id, r.URL.Query().Get("notice"), "")
}

func (h *WebHandler) renderTables(w http.ResponseWriter, r *http.Request, id int64, okMsg, errMsg string) {
	conn := h.conn(r)
	db, err := conn.GetDatabase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tables, err := conn.ListTables(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, tablesPage(h.view(r), db, tables, okMsg, errMsg))
}

func (h *WebHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn := h.conn(r)
	db, err := conn.GetDatabase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var p core.TablePayload
	if db.IsDirect() {
		p.Name = strings.TrimSpace(r.FormValue("name"))
		p.DBPassword = r.FormValue("db_password")
		if p.Name == "" || p.DBPassword == "" {
			h.renderTables(w, r, id, "", "Table name and database password are required.")
			return
		}
	} else {
		p.Schemas = strings.TrimSpace(r.FormValue("schemas"))
		if err := service.ValidateSchemaBlob(p.Schemas); err != nil {
			h.renderTables(w, r, id, "", err.Error())
			return
		}
	}

	if err := conn.CreateTable(r.Context(), id, p); err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			h.fail(w, r, err)
			return
		}
		h.renderTables(w, r, id, "", core.UserMessage(err))
		return
	}
	http.Redirect(w, r, "/databases/"+idString(id)+"/tables?notice=created", http.StatusSeeOther)
}

func (h *WebHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tableID, err := pathID(r, "tableID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.conn(r).DeleteTable(r.Context(), id, tableID); err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			h.fail(w, r, err)
			return
		}
		h.renderTables(w, r, id, "", core.UserMessage(err))
		return
	}
	http.Redirect(w, r, "/databases/"+idString(id)+"/tables?notice=deleted", http.StatusSeeOther)
}

// --- User access ---

func (h *WebHandler) UsersPage(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn := h.conn(r)
	db, err := conn.GetDatabase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := conn.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, usersPage(h.view(r), db, service.NewAccessEditor(id, users), r.URL.Query().Get("notice"), ""))
}

func (h *WebHandler) SaveAccess(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn := h.conn(r)
	db, err := conn.GetDatabase(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := conn.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, err)
		return
	}
	editor := service.NewAccessEditor(id, users)
	var checked []int64
	for _, v := range r.Form["access"] {
		if uid, err := strconv.ParseInt(v, 10, 64); err == nil {
			checked = append(checked, uid)
		}
	}
	editor.SetChecked(checked)

	if err := editor.Save(r.Context(), conn); err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			h.fail(w, r, err)
			return
		}
		renderHTML(w, http.StatusOK, usersPage(h.view(r), db, editor, "", core.UserMessage(err)))
		return
	}
	http.Redirect(w, r, "/databases/"+idString(id)+"/users?notice=saved", http.StatusSeeOther)
}

// --- Preferences ---

func (h *WebHandler) SetSidebar(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	if err := st.store.SetSidebarCollapsed(r.FormValue("collapsed") == "true"); err != nil {
		logger.Error.Printf("Failed to save sidebar preference: %v", err)
	}

	http.Redirect(w, r, localReturnPath(r.FormValue("return")), http.StatusSeeOther)
}

// localReturnPath falls back to "/" unless target is a path on this host.
// Browsers read a leading "/\" like "//".
func localReturnPath(target string) string {
	if !strings.HasPrefix(target, "/") || len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return "/"
	}
	return target
}

func (h *WebHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.QuestionPage)
	r.Post("/ask", h.Ask)
	r.Get("/templates", h.TemplatesPage)
	r.Get("/queries", h.QueriesPage)
	r.Get("/activity", h.ActivityPage)

	r.Get("/databases", h.DatabasesList)
	r.Get("/databases/new", h.NewDatabase)
	r.Post("/databases/new", h.SaveDatabase)
	r.Get("/databases/{id}/edit", h.EditDatabase)
	r.Post("/databases/{id}/edit", h.SaveDatabase)
	r.Get("/databases/{id}/tables", h.TablesPage)
	r.Post("/databases/{id}/tables", h.CreateTable)
	r.Post("/databases/{id}/tables/{tableID}/delete", h.DeleteTable)
	r.Get("/databases/{id}/users", h.UsersPage)
	r.Post("/databases/{id}/users", h.SaveAccess)

	r.Post("/preferences/sidebar", h.SetSidebar)
}
